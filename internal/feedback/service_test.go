package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-platform/internal/auth"
	"crm-platform/internal/leads"
	"crm-platform/internal/rbac"
)

var testNow = time.Unix(1700000000, 0).UTC()

type fakeRepo struct {
	leads    map[string]leads.Lead
	feedback []Feedback
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[string]leads.Lead)}
}

func (r *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	savedLeads := make(map[string]leads.Lead, len(r.leads))
	for k, v := range r.leads {
		savedLeads[k] = v
	}
	savedFeedback := append([]Feedback(nil), r.feedback...)

	if err := fn(ctx); err != nil {
		r.leads = savedLeads
		r.feedback = savedFeedback
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

func (r *fakeRepo) CreateFeedback(ctx context.Context, f Feedback) error {
	r.feedback = append(r.feedback, f)
	return nil
}

func (r *fakeRepo) ListFeedbackByLead(ctx context.Context, leadID string) ([]Feedback, error) {
	var out []Feedback
	for _, f := range r.feedback {
		if f.LeadID == leadID {
			out = append(out, f)
		}
	}
	return out, nil
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

func TestSubmit_InterestedCompletesLead(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	fb, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:     "l1",
		Type:       TypeInterested,
		SessionID:  "sess-1",
		Interested: &Interested{Project: "Skyline", Budget: "80L", InterestLevel: InterestHigh},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fb.Interested == nil || fb.NotInterested != nil || fb.Callback != nil {
		t.Fatalf("exactly the interested variant must be set: %+v", fb)
	}
	if repo.leads["l1"].Status != leads.StatusCompleted {
		t.Fatalf("interested feedback completes the lead, got %q", repo.leads["l1"].Status)
	}
}

func TestSubmit_NotInterestedRequiresReason(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), agent, SubmitInput{LeadID: "l1", Type: TypeNotInterested})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	fb, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:        "l1",
		Type:          TypeNotInterested,
		NotInterested: &NotInterested{Reason: "already bought elsewhere"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fb.NotInterested.Reason != "already bought elsewhere" {
		t.Fatalf("reason must be preserved")
	}
	if repo.leads["l1"].Status != leads.StatusNotInterested {
		t.Fatalf("expected lead not_interested, got %q", repo.leads["l1"].Status)
	}
}

func TestSubmit_CallbackAcceptsZuluSuffix(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	fb, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:       "l1",
		Type:         TypeCallback,
		CallbackTime: "2026-09-01T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	want := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	if !fb.Callback.Time.Equal(want) {
		t.Fatalf("expected %v, got %v", want, fb.Callback.Time)
	}
	if fb.Callback.Priority != "medium" {
		t.Fatalf("expected default medium priority, got %q", fb.Callback.Priority)
	}
	if repo.leads["l1"].Status != leads.StatusCallback {
		t.Fatalf("expected lead callback, got %q", repo.leads["l1"].Status)
	}

	// Explicit-offset spelling parses to the same instant.
	fb2, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:       "l1",
		Type:         TypeCallback,
		CallbackTime: "2026-09-01T10:30:00+00:00",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !fb2.Callback.Time.Equal(fb.Callback.Time) {
		t.Fatalf("Z and +00:00 must parse to the same instant")
	}
}

func TestSubmit_BadCallbackTimePersistsNothing(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:       "l1",
		Type:         TypeCallback,
		CallbackTime: "tomorrow at noon",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.feedback) != 0 {
		t.Fatalf("nothing may be persisted")
	}
	if repo.leads["l1"].Status != leads.StatusAssigned {
		t.Fatalf("lead status must be untouched, got %q", repo.leads["l1"].Status)
	}
}

func TestSubmit_ForbiddenForNonOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.leads["l1"] = leads.Lead{ID: "l1", AssignedAgentID: "someone-else", Status: leads.StatusAssigned}
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), agent, SubmitInput{
		LeadID:     "l1",
		Type:       TypeInterested,
		Interested: &Interested{},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.feedback) != 0 {
		t.Fatalf("nothing may be persisted")
	}
}

func TestSubmit_UnknownTypeRejected(t *testing.T) {
	repo := newFakeRepo()
	seedOwnedLead(repo, "l1")
	svc := newTestService(repo)

	_, err := svc.Submit(context.Background(), agent, SubmitInput{LeadID: "l1", Type: Type("maybe")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
