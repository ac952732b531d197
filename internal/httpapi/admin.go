package httpapi

import (
	"net/http"

	"crm-platform/internal/agents"
	"crm-platform/internal/assignment"
	"crm-platform/internal/leads"

	"github.com/gin-gonic/gin"
)

// Admin endpoints. Route registration guards these with RequireAdmin.

// --- agents ---

type createAgentRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Department  string `json:"department,omitempty"`
}

func (h Handlers) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	agent, err := h.Agents.Create(c.Request.Context(), agents.CreateInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (h Handlers) ListAgents(c *gin.Context) {
	list, err := h.Agents.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": list})
}

func (h Handlers) ActivateAgent(c *gin.Context) {
	if err := h.Agents.Activate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

func (h Handlers) DeactivateAgent(c *gin.Context) {
	if err := h.Agents.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "inactive"})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h Handlers) ResetAgentPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Agents.ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password reset"})
}

// --- leads ---

type createLeadRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile"`
	Pincode     string `json:"pincode,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
	Source      string `json:"source,omitempty"`
	Year        int    `json:"year,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (h Handlers) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	lead, err := h.Leads.Create(c.Request.Context(), leads.CreateInput{
		Name:        req.Name,
		Email:       req.Email,
		Mobile:      req.Mobile,
		Pincode:     req.Pincode,
		ProjectName: req.ProjectName,
		Source:      req.Source,
		Year:        req.Year,
		Location:    req.Location,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h Handlers) ListLeads(c *gin.Context) {
	f := leads.Filter{
		Name:        c.Query("name"),
		Mobile:      c.Query("mobile"),
		ProjectName: c.Query("project_name"),
		Pincode:     c.Query("pincode"),
		AgentID:     c.Query("agent_id"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := leads.ParseStatus(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		f.Status = status
	}
	list, err := h.Leads.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": list, "count": len(list)})
}

func (h Handlers) GetLead(c *gin.Context) {
	lead, err := h.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// LeadDetails bundles a lead with its full lifecycle record.
func (h Handlers) LeadDetails(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	lead, err := h.Leads.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	sessions, err := h.Timeline.Sessions(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	calls, err := h.Calls.ForLead(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := h.Assignment.HistoryForLead(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	reassignments, err := h.Assignment.ReassignmentsForLead(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead":          lead,
		"sessions":      sessions,
		"calls":         calls,
		"history":       history,
		"reassignments": reassignments,
	})
}

func (h Handlers) DeleteLead(c *gin.Context) {
	if err := h.Leads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ImportLeads accepts a multipart CSV/XLSX upload.
func (h Handlers) ImportLeads(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	res, err := h.Importer.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- projects ---

type createProjectRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h Handlers) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.Leads.CreateProject(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) ListProjects(c *gin.Context) {
	list, err := h.Leads.ListProjects(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

func (h Handlers) DeleteProject(c *gin.Context) {
	if err := h.Leads.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// --- locations ---

type createLocationRequest struct {
	Name string `json:"name"`
}

func (h Handlers) CreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	loc, err := h.Leads.CreateLocation(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (h Handlers) ListLocations(c *gin.Context) {
	list, err := h.Leads.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": list})
}

func (h Handlers) DeleteLocation(c *gin.Context) {
	if err := h.Leads.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// --- assignment ---

type assignRequest struct {
	AgentID   string `json:"agent_id"`
	ProjectID string `json:"project_id,omitempty"`
	Note      string `json:"note,omitempty"`
}

func (h Handlers) AssignLead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Assignment.Assign(c.Request.Context(), a, assignment.AssignInput{
		LeadID:    c.Param("id"),
		AgentID:   req.AgentID,
		ProjectID: req.ProjectID,
		Note:      req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

type bulkAssignRequest struct {
	LeadIDs   []string `json:"lead_ids"`
	AgentID   string   `json:"agent_id"`
	ProjectID string   `json:"project_id,omitempty"`
	Note      string   `json:"note,omitempty"`
}

func (h Handlers) BulkAssignLeads(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Assignment.BulkAssign(c.Request.Context(), a, assignment.BulkAssignInput{
		LeadIDs:   req.LeadIDs,
		AgentID:   req.AgentID,
		ProjectID: req.ProjectID,
		Note:      req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) LeadAssignmentHistory(c *gin.Context) {
	history, err := h.Assignment.HistoryForLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h Handlers) LeadReassignments(c *gin.Context) {
	list, err := h.Assignment.ReassignmentsForLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reassignments": list})
}

// LeadActivity returns the raw, ungrouped activity log for a lead.
func (h Handlers) LeadActivity(c *gin.Context) {
	entries, err := h.Activity.ForLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

// --- reporting ---

func (h Handlers) Dashboard(c *gin.Context) {
	stats, err := h.Reporting.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h Handlers) AgentPerformance(c *gin.Context) {
	perf, err := h.Reporting.AgentPerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

func (h Handlers) AllAgentPerformance(c *gin.Context) {
	perf, err := h.Reporting.AllAgentPerformance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": perf})
}
