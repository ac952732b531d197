package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-platform/internal/agents"
	"crm-platform/internal/callsession"
	"crm-platform/internal/feedback"
	"crm-platform/internal/leads"
)

type fakeRepo struct {
	leads    []leads.Lead
	agents   []agents.Agent
	sessions map[string][]callsession.CallSession
	feedback map[string][]feedback.Feedback
}

func (r *fakeRepo) ListLeads(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	if f.AgentID == "" {
		return r.leads, nil
	}
	var out []leads.Lead
	for _, l := range r.leads {
		if l.AssignedAgentID == f.AgentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	return r.agents, nil
}

func (r *fakeRepo) ListCallSessions(ctx context.Context) ([]callsession.CallSession, error) {
	var out []callsession.CallSession
	for _, cs := range r.sessions {
		out = append(out, cs...)
	}
	return out, nil
}

func (r *fakeRepo) ListCallSessionsByAgent(ctx context.Context, agentID string) ([]callsession.CallSession, error) {
	return r.sessions[agentID], nil
}

func (r *fakeRepo) ListFeedback(ctx context.Context) ([]feedback.Feedback, error) {
	var out []feedback.Feedback
	for _, f := range r.feedback {
		out = append(out, f...)
	}
	return out, nil
}

func (r *fakeRepo) ListFeedbackByAgent(ctx context.Context, agentID string) ([]feedback.Feedback, error) {
	return r.feedback[agentID], nil
}

var now = time.Unix(1700000000, 0).UTC()

func TestDashboard(t *testing.T) {
	repo := &fakeRepo{
		leads: []leads.Lead{
			{ID: "l1", Status: leads.StatusNew, Source: "website"},
			{ID: "l2", Status: leads.StatusAssigned, AssignedAgentID: "a1", Source: "website"},
			{ID: "l3", Status: leads.StatusCallback, AssignedAgentID: "a1", Source: "walk-in"},
		},
		agents: []agents.Agent{
			{ID: "a1", Username: "ravi", Active: true},
			{ID: "a2", Username: "meena", Active: false},
		},
		sessions: map[string][]callsession.CallSession{
			"a1": {
				{ID: "c1", Status: callsession.StatusCompleted, CallTime: now},
				{ID: "c2", Status: callsession.StatusBusy, CallTime: now.Add(-48 * time.Hour)},
			},
		},
		feedback: map[string][]feedback.Feedback{
			"a1": {{ID: "f1", Type: feedback.TypeInterested}},
		},
	}
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if stats.TotalLeads != 3 || stats.AssignedLeads != 2 || stats.UnassignedLeads != 1 {
		t.Fatalf("unexpected lead counts: %+v", stats)
	}
	if stats.TotalAgents != 2 || stats.ActiveAgents != 1 {
		t.Fatalf("unexpected agent counts: %+v", stats)
	}
	if stats.StatusDistribution[leads.StatusCallback] != 1 {
		t.Fatalf("unexpected status distribution: %+v", stats.StatusDistribution)
	}
	if stats.SourceDistribution["website"] != 2 {
		t.Fatalf("unexpected source distribution: %+v", stats.SourceDistribution)
	}
	if stats.TotalCalls != 2 || stats.TodaysCalls != 1 {
		t.Fatalf("unexpected call totals: %+v", stats)
	}
	if stats.CallStatusDistribution[callsession.StatusBusy] != 1 {
		t.Fatalf("unexpected call status distribution: %+v", stats.CallStatusDistribution)
	}
	if stats.FeedbackTypeDistribution[feedback.TypeInterested] != 1 {
		t.Fatalf("unexpected feedback distribution: %+v", stats.FeedbackTypeDistribution)
	}
}

func TestAgentPerformance(t *testing.T) {
	repo := &fakeRepo{
		leads: []leads.Lead{
			{ID: "l1", AssignedAgentID: "a1"},
			{ID: "l2", AssignedAgentID: "a1"},
		},
		agents: []agents.Agent{{ID: "a1", Username: "ravi", Active: true}},
		sessions: map[string][]callsession.CallSession{
			"a1": {
				{ID: "c1", Status: callsession.StatusCompleted, DurationSeconds: 120},
				{ID: "c2", Status: callsession.StatusBusy, DurationSeconds: 10},
			},
		},
		feedback: map[string][]feedback.Feedback{
			"a1": {
				{ID: "f1", Type: feedback.TypeInterested},
				{ID: "f2", Type: feedback.TypeCallback},
			},
		},
	}
	svc := NewService(repo)

	perf, err := svc.AgentPerformance(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if perf.AssignedLeads != 2 {
		t.Fatalf("expected 2 assigned leads, got %d", perf.AssignedLeads)
	}
	if perf.CallsMade != 2 || perf.CompletedCalls != 1 {
		t.Fatalf("unexpected call counts: %+v", perf)
	}
	if perf.TotalTalkSeconds != 130 || perf.AverageTalkSeconds != 65 {
		t.Fatalf("unexpected talk time: %+v", perf)
	}
	if perf.FeedbackSubmitted != 2 || perf.InterestedCount != 1 || perf.CallbackCount != 1 {
		t.Fatalf("unexpected feedback counts: %+v", perf)
	}
}

func TestAgentPerformance_UnknownAgent(t *testing.T) {
	svc := NewService(&fakeRepo{})
	if _, err := svc.AgentPerformance(context.Background(), "ghost"); !errors.Is(err, agents.ErrNotFound) {
		t.Fatalf("expected agents.ErrNotFound, got %v", err)
	}
	if _, err := svc.AgentPerformance(context.Background(), ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
