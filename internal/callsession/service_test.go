package callsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/leads"
	"crm-platform/internal/rbac"
)

var testNow = time.Unix(1700000000, 0).UTC()

type fakeRepo struct {
	leads    map[string]leads.Lead
	sessions map[string]CallSession
	activity []activity.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:    make(map[string]leads.Lead),
		sessions: make(map[string]CallSession),
	}
}

func (r *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	savedLeads := make(map[string]leads.Lead, len(r.leads))
	for k, v := range r.leads {
		savedLeads[k] = v
	}
	savedSessions := make(map[string]CallSession, len(r.sessions))
	for k, v := range r.sessions {
		savedSessions[k] = v
	}
	savedActivity := append([]activity.Entry(nil), r.activity...)

	if err := fn(ctx); err != nil {
		r.leads = savedLeads
		r.sessions = savedSessions
		r.activity = savedActivity
		return err
	}
	return nil
}

func (r *fakeRepo) GetLead(ctx context.Context, id string) (leads.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return leads.Lead{}, leads.ErrNotFound
	}
	return l, nil
}

func (r *fakeRepo) UpdateLead(ctx context.Context, l leads.Lead) error {
	r.leads[l.ID] = l
	return nil
}

func (r *fakeRepo) CreateCallSession(ctx context.Context, cs CallSession) error {
	r.sessions[cs.ID] = cs
	return nil
}

func (r *fakeRepo) GetCallSession(ctx context.Context, id string) (CallSession, error) {
	cs, ok := r.sessions[id]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	return cs, nil
}

func (r *fakeRepo) UpdateCallSession(ctx context.Context, cs CallSession) error {
	r.sessions[cs.ID] = cs
	return nil
}

func (r *fakeRepo) ListCallSessionsByLead(ctx context.Context, leadID string) ([]CallSession, error) {
	var out []CallSession
	for _, cs := range r.sessions {
		if cs.LeadID == leadID {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (r *fakeRepo) AppendActivity(ctx context.Context, e activity.Entry) error {
	r.activity = append(r.activity, e)
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo)
	svc.clock = func() time.Time { return testNow }
	return svc
}

var agent = auth.Actor{ID: "a1", Role: rbac.RoleAgent, Active: true}

func seedOwnedLead(r *fakeRepo, id string) {
	r.leads[id] = leads.Lead{ID: id, Mobile: "9000" + id, AssignedAgentID: agent.ID, Status: leads.StatusAssigned}
}

func TestStart_CreatesInitiatedSessionWithActivity(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	cs, err := svc.Start(context.Background(), agent, StartInput{LeadID: "l1", SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cs.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %q", cs.Status)
	}
	if cs.EndTime != nil {
		t.Fatalf("new session must have no end time")
	}
	if len(repo.activity) != 1 || repo.activity[0].SessionID != "sess-1" {
		t.Fatalf("expected a correlated activity entry, got %+v", repo.activity)
	}
}

func TestStart_ForbiddenForNonOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.leads["l1"] = leads.Lead{ID: "l1", AssignedAgentID: "someone-else", Status: leads.StatusAssigned}
	svc := newTestService(repo)

	_, err := svc.Start(context.Background(), agent, StartInput{LeadID: "l1", SessionID: "sess-1"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("no session may be created")
	}
}

func TestReportOutcome_MapsActionsToStatuses(t *testing.T) {
	cases := []struct {
		action  Action
		session Status
		lead    leads.Status
	}{
		{ActionInterested, StatusCompleted, leads.StatusInterested},
		{ActionNotInterested, StatusCompleted, leads.StatusNotInterested},
		{ActionBusy, StatusBusy, leads.StatusCallback},
		{ActionNotAnswered, StatusNotAnswered, leads.StatusCallback},
		{ActionWrongNumber, StatusWrongNumber, leads.StatusNotInterested},
		{ActionCallback, StatusCallbackScheduled, leads.StatusCallback},
		// end_manual closes the session without touching the lead.
		{ActionEndManual, StatusEndedManual, leads.StatusAssigned},
	}

	for _, tc := range cases {
		repo := newFakeRepo()
		seedOwnedLead(repo, "l1")
		svc := newTestService(repo)

		cs, err := svc.Start(context.Background(), agent, StartInput{LeadID: "l1", SessionID: "sess-1"})
		if err != nil {
			t.Fatalf("%s: start failed: %v", tc.action, err)
		}

		got, err := svc.ReportOutcome(context.Background(), agent, OutcomeInput{CallID: cs.ID, Action: tc.action, DurationSeconds: 42})
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tc.action, err)
		}
		if got.Status != tc.session {
			t.Fatalf("%s: expected session status %q, got %q", tc.action, tc.session, got.Status)
		}
		if got.EndTime == nil || !got.EndTime.Equal(testNow) {
			t.Fatalf("%s: end time must be stamped", tc.action)
		}
		if got.DurationSeconds != 42 {
			t.Fatalf("%s: client-reported duration must be stored as-is", tc.action)
		}
		if repo.leads["l1"].Status != tc.lead {
			t.Fatalf("%s: expected lead status %q, got %q", tc.action, tc.lead, repo.leads["l1"].Status)
		}
	}
}

func TestReportOutcome_SecondReportFails(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	cs, err := svc.Start(context.Background(), agent, StartInput{LeadID: "l1", SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.ReportOutcome(context.Background(), agent, OutcomeInput{CallID: cs.ID, Action: ActionInterested}); err != nil {
		t.Fatalf("first report failed: %v", err)
	}

	_, err = svc.ReportOutcome(context.Background(), agent, OutcomeInput{CallID: cs.ID, Action: ActionBusy})
	if !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	// The first outcome must be preserved.
	if repo.sessions[cs.ID].Status != StatusCompleted {
		t.Fatalf("first outcome must stand, got %q", repo.sessions[cs.ID].Status)
	}
	if repo.leads["l1"].Status != leads.StatusInterested {
		t.Fatalf("lead status must keep the first outcome, got %q", repo.leads["l1"].Status)
	}
}

func TestReportOutcome_OnlyOwnerMayClose(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	cs, err := svc.Start(context.Background(), agent, StartInput{LeadID: "l1", SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	other := auth.Actor{ID: "a2", Role: rbac.RoleAgent, Active: true}
	if _, err := svc.ReportOutcome(context.Background(), other, OutcomeInput{CallID: cs.ID, Action: ActionBusy}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReportOutcome_UnknownActionRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.ReportOutcome(context.Background(), agent, OutcomeInput{CallID: "c1", Action: Action("hang_up")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseAction(t *testing.T) {
	if _, ok := ParseAction("interested"); !ok {
		t.Fatalf("interested must parse")
	}
	if _, ok := ParseAction("shout"); ok {
		t.Fatalf("unknown action must not parse")
	}
}

func TestLogActivity_DefaultsKind(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	err := svc.LogActivity(context.Background(), agent, LogInput{LeadID: "l1", SessionID: "sess-1", Message: "dialing"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(repo.activity) != 1 || repo.activity[0].Kind != activity.KindInfo {
		t.Fatalf("expected info kind default, got %+v", repo.activity)
	}
}
