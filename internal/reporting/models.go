package reporting

import (
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"
)

// DashboardStats is the admin landing-page aggregate.
type DashboardStats struct {
	TotalLeads      int `json:"total_leads"`
	AssignedLeads   int `json:"assigned_leads"`
	UnassignedLeads int `json:"unassigned_leads"`
	TotalAgents     int `json:"total_agents"`
	ActiveAgents    int `json:"active_agents"`

	TotalCalls  int `json:"total_calls"`
	TodaysCalls int `json:"todays_calls"`

	StatusDistribution       map[leads.Status]int       `json:"status_distribution"`
	SourceDistribution       map[string]int             `json:"source_distribution"`
	CallStatusDistribution   map[callsession.Status]int `json:"call_status_distribution"`
	FeedbackTypeDistribution map[feedback.Type]int      `json:"feedback_type_distribution"`
}

// AgentPerformance aggregates one agent's workload and outcomes.
type AgentPerformance struct {
	AgentID  string `json:"agent_id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`

	AssignedLeads int `json:"assigned_leads"`

	CallsMade          int `json:"calls_made"`
	CompletedCalls     int `json:"completed_calls"`
	TotalTalkSeconds   int `json:"total_talk_seconds"`
	AverageTalkSeconds int `json:"average_talk_seconds"`

	FeedbackSubmitted  int `json:"feedback_submitted"`
	InterestedCount    int `json:"interested_count"`
	NotInterestedCount int `json:"not_interested_count"`
	CallbackCount      int `json:"callback_count"`
}
