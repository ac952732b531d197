package reporting

import (
	"context"
	"errors"
	"time"

	"crm-platform/internal/agents"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting. Aggregates are computed in
// memory from full listings; lead volumes here are small enough that pushing
// the math into SQL buys nothing yet.
type Repository interface {
	ListLeads(ctx context.Context, f leads.Filter) ([]leads.Lead, error)
	ListAgents(ctx context.Context) ([]agents.Agent, error)
	ListCallSessions(ctx context.Context) ([]callsession.CallSession, error)
	ListCallSessionsByAgent(ctx context.Context, agentID string) ([]callsession.CallSession, error)
	ListFeedback(ctx context.Context) ([]feedback.Feedback, error)
	ListFeedbackByAgent(ctx context.Context, agentID string) ([]feedback.Feedback, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Dashboard computes the admin overview aggregates.
func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	ls, err := s.repo.ListLeads(ctx, leads.Filter{})
	if err != nil {
		return DashboardStats{}, err
	}
	ags, err := s.repo.ListAgents(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	sessions, err := s.repo.ListCallSessions(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	fbs, err := s.repo.ListFeedback(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	out := DashboardStats{
		TotalLeads:               len(ls),
		TotalAgents:              len(ags),
		TotalCalls:               len(sessions),
		StatusDistribution:       make(map[leads.Status]int),
		SourceDistribution:       make(map[string]int),
		CallStatusDistribution:   make(map[callsession.Status]int),
		FeedbackTypeDistribution: make(map[feedback.Type]int),
	}
	for _, l := range ls {
		if l.AssignedAgentID != "" {
			out.AssignedLeads++
		} else {
			out.UnassignedLeads++
		}
		out.StatusDistribution[l.Status]++
		out.SourceDistribution[l.Source]++
	}
	for _, a := range ags {
		if a.Active {
			out.ActiveAgents++
		}
	}
	today := s.clock().UTC().Truncate(24 * time.Hour)
	for _, cs := range sessions {
		out.CallStatusDistribution[cs.Status]++
		if !cs.CallTime.UTC().Before(today) && cs.CallTime.UTC().Before(today.Add(24*time.Hour)) {
			out.TodaysCalls++
		}
	}
	for _, f := range fbs {
		out.FeedbackTypeDistribution[f.Type]++
	}
	return out, nil
}

// AgentPerformance computes one agent's workload and call outcomes.
func (s *Service) AgentPerformance(ctx context.Context, agentID string) (AgentPerformance, error) {
	if agentID == "" {
		return AgentPerformance{}, ErrInvalidRequest
	}

	ags, err := s.repo.ListAgents(ctx)
	if err != nil {
		return AgentPerformance{}, err
	}
	var agent *agents.Agent
	for i := range ags {
		if ags[i].ID == agentID {
			agent = &ags[i]
			break
		}
	}
	if agent == nil {
		return AgentPerformance{}, agents.ErrNotFound
	}

	out := AgentPerformance{AgentID: agent.ID, Username: agent.Username, Active: agent.Active}

	assigned, err := s.repo.ListLeads(ctx, leads.Filter{AgentID: agentID})
	if err != nil {
		return AgentPerformance{}, err
	}
	out.AssignedLeads = len(assigned)

	sessions, err := s.repo.ListCallSessionsByAgent(ctx, agentID)
	if err != nil {
		return AgentPerformance{}, err
	}
	for _, cs := range sessions {
		out.CallsMade++
		out.TotalTalkSeconds += cs.DurationSeconds
		if cs.Status == callsession.StatusCompleted {
			out.CompletedCalls++
		}
	}
	if out.CallsMade > 0 {
		out.AverageTalkSeconds = out.TotalTalkSeconds / out.CallsMade
	}

	fbs, err := s.repo.ListFeedbackByAgent(ctx, agentID)
	if err != nil {
		return AgentPerformance{}, err
	}
	for _, f := range fbs {
		out.FeedbackSubmitted++
		switch f.Type {
		case feedback.TypeInterested:
			out.InterestedCount++
		case feedback.TypeNotInterested:
			out.NotInterestedCount++
		case feedback.TypeCallback:
			out.CallbackCount++
		}
	}
	return out, nil
}

// AllAgentPerformance reports every agent, for the admin leaderboard.
func (s *Service) AllAgentPerformance(ctx context.Context) ([]AgentPerformance, error) {
	ags, err := s.repo.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AgentPerformance, 0, len(ags))
	for _, a := range ags {
		p, err := s.AgentPerformance(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
