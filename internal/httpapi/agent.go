package httpapi

import (
	"net/http"
	"path/filepath"

	"crm-platform/internal/activity"
	"crm-platform/internal/assignment"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"

	"github.com/gin-gonic/gin"
)

// Agent endpoints. Route registration guards these with RequireAgent; lead
// ownership is enforced again in the services.

// MyLeads lists leads assigned to the authenticated agent. The agent filter
// is forced server-side; an agent cannot list another agent's book.
func (h Handlers) MyLeads(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f := leads.Filter{
		Name:      c.Query("name"),
		Mobile:    c.Query("mobile"),
		AgentID:   a.ID,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
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

// MyLeadDetails returns one owned lead with its grouped timeline.
func (h Handlers) MyLeadDetails(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	lead, err := h.Leads.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if lead.AssignedAgentID != a.ID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "lead not assigned to you"})
		return
	}

	sessions, err := h.Timeline.Sessions(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	fbs, err := h.Feedback.ForLead(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": lead, "sessions": sessions, "feedback": fbs})
}

// LeadTimeline returns the grouped per-session timeline for an owned lead.
func (h Handlers) LeadTimeline(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	lead, err := h.Leads.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if lead.AssignedAgentID != a.ID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "lead not assigned to you"})
		return
	}

	sessions, err := h.Timeline.Sessions(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// --- calls ---

type startCallRequest struct {
	SessionID string `json:"session_id"`
}

// StartCall opens a call session, subject to the per-agent concurrent call
// cap.
func (h Handlers) StartCall(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	release, ok := h.acquireCallSlot(c, a.ID)
	if !ok {
		return
	}

	cs, err := h.Calls.Start(c.Request.Context(), a, callsession.StartInput{
		LeadID:    c.Param("id"),
		SessionID: activity.SessionID(req.SessionID),
	})
	if err != nil {
		release()
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cs)
}

type callOutcomeRequest struct {
	Action          string `json:"action"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// ReportCallOutcome closes a call session with the reported action and frees
// the agent's call slot.
func (h Handlers) ReportCallOutcome(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req callOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	action, ok := callsession.ParseAction(req.Action)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}

	cs, err := h.Calls.ReportOutcome(c.Request.Context(), a, callsession.OutcomeInput{
		CallID:          c.Param("call_id"),
		Action:          action,
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
	})
	if err != nil {
		// The slot is released only when a report lands. A failed report
		// leaves it held: the call is still open and the agent retries.
		// A duplicate release here could free a slot belonging to another
		// of the agent's calls. If no report ever lands, the cap key's TTL
		// reclaims the slot.
		writeError(c, err)
		return
	}
	h.releaseCallSlot(c, a.ID)
	c.JSON(http.StatusOK, cs)
}

type logActivityRequest struct {
	LeadID    string `json:"lead_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
}

// LogCallActivity appends a live-call event.
func (h Handlers) LogCallActivity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req logActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Calls.LogActivity(c.Request.Context(), a, callsession.LogInput{
		LeadID:    req.LeadID,
		SessionID: activity.SessionID(req.SessionID),
		Message:   req.Message,
		Kind:      activity.Kind(req.Kind),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "logged"})
}

// --- feedback ---

type submitFeedbackRequest struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`

	Interested    *feedback.Interested    `json:"interested,omitempty"`
	NotInterested *feedback.NotInterested `json:"not_interested,omitempty"`

	CallbackTime     string `json:"callback_time,omitempty"`
	CallbackNotes    string `json:"callback_notes,omitempty"`
	CallbackPriority string `json:"callback_priority,omitempty"`

	AdditionalNotes     string `json:"additional_notes,omitempty"`
	RecordingPath       string `json:"recording_path,omitempty"`
	CallDurationSeconds int    `json:"call_duration_seconds,omitempty"`
}

func (h Handlers) SubmitFeedback(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	fb, err := h.Feedback.Submit(c.Request.Context(), a, feedback.SubmitInput{
		LeadID:              c.Param("id"),
		Type:                feedback.Type(req.Type),
		SessionID:           activity.SessionID(req.SessionID),
		Interested:          req.Interested,
		NotInterested:       req.NotInterested,
		CallbackTime:        req.CallbackTime,
		CallbackNotes:       req.CallbackNotes,
		CallbackPriority:    req.CallbackPriority,
		AdditionalNotes:     req.AdditionalNotes,
		RecordingPath:       req.RecordingPath,
		CallDurationSeconds: req.CallDurationSeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// UploadRecording stores a call recording (wav/mp3 multipart upload) and
// returns the stored path for inclusion in feedback.
func (h Handlers) UploadRecording(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	sessionID := c.PostForm("session_id")
	file, header, err := c.Request.FormFile("recording")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "recording file required"})
		return
	}
	defer file.Close()

	path, err := h.Recordings.Save(c.Param("id"), activity.SessionID(sessionID), filepath.Ext(header.Filename), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recording_path": path})
}

// --- self reassignment ---

type selfReassignRequest struct {
	ToAgentID string `json:"to_agent_id"`
	Reason    string `json:"reason"`
}

func (h Handlers) SelfReassignLead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req selfReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Assignment.SelfReassign(c.Request.Context(), a, assignment.SelfReassignInput{
		LeadID:    c.Param("id"),
		ToAgentID: req.ToAgentID,
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reassigned"})
}
