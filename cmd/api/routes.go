package main

import (
	"crm-platform/internal/httpapi"
	"crm-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAdmin())
		{
			admin.GET("/dashboard", h.Dashboard)
			admin.GET("/performance", h.AllAgentPerformance)

			admin.POST("/agents", h.CreateAgent)
			admin.GET("/agents", h.ListAgents)
			admin.POST("/agents/:id/activate", h.ActivateAgent)
			admin.POST("/agents/:id/deactivate", h.DeactivateAgent)
			admin.POST("/agents/:id/reset-password", h.ResetAgentPassword)
			admin.GET("/agents/:id/performance", h.AgentPerformance)

			admin.POST("/leads", h.CreateLead)
			admin.GET("/leads", h.ListLeads)
			admin.POST("/leads/import", h.ImportLeads)
			admin.POST("/leads/bulk-assign", h.BulkAssignLeads)
			admin.GET("/leads/:id", h.LeadDetails)
			admin.DELETE("/leads/:id", h.DeleteLead)
			admin.POST("/leads/:id/assign", h.AssignLead)
			admin.GET("/leads/:id/activity", h.LeadActivity)
			admin.GET("/leads/:id/history", h.LeadAssignmentHistory)
			admin.GET("/leads/:id/reassignments", h.LeadReassignments)

			admin.POST("/projects", h.CreateProject)
			admin.GET("/projects", h.ListProjects)
			admin.DELETE("/projects/:id", h.DeleteProject)

			admin.POST("/locations", h.CreateLocation)
			admin.GET("/locations", h.ListLocations)
			admin.DELETE("/locations/:id", h.DeleteLocation)
		}

		// AGENT routes
		agent := v1.Group("/agent")
		agent.Use(rbac.RequireAgent())
		{
			agent.GET("/leads", h.MyLeads)
			agent.GET("/leads/:id", h.MyLeadDetails)
			agent.GET("/leads/:id/timeline", h.LeadTimeline)
			agent.POST("/leads/:id/call", h.StartCall)
			agent.POST("/leads/:id/feedback", h.SubmitFeedback)
			agent.POST("/leads/:id/recording", h.UploadRecording)
			agent.POST("/leads/:id/reassign", h.SelfReassignLead)
			agent.POST("/calls/:call_id/outcome", h.ReportCallOutcome)
			agent.POST("/activity", h.LogCallActivity)
		}
	}
}
