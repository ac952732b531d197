package timeline

import (
	"context"
	"testing"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/feedback"
)

var base = time.Unix(1700000000, 0).UTC()

type fakeRepo struct {
	entries  []activity.Entry
	feedback []feedback.Feedback
}

func (r *fakeRepo) ListActivityByLead(ctx context.Context, leadID string) ([]activity.Entry, error) {
	return r.entries, nil
}

func (r *fakeRepo) ListFeedbackByLead(ctx context.Context, leadID string) ([]feedback.Feedback, error) {
	return r.feedback, nil
}

func at(offset time.Duration) time.Time { return base.Add(offset) }

func TestSessions_GroupsBySessionID(t *testing.T) {
	repo := &fakeRepo{
		entries: []activity.Entry{
			{ID: "e1", LeadID: "l1", SessionID: "s1", Message: "call started", CreatedAt: at(0)},
			{ID: "e2", LeadID: "l1", SessionID: "s1", Message: "call ended", CreatedAt: at(2 * time.Minute)},
			{ID: "e3", LeadID: "l1", SessionID: "s2", Message: "call started", CreatedAt: at(10 * time.Minute)},
		},
		feedback: []feedback.Feedback{
			{ID: "f1", LeadID: "l1", SessionID: "s1", Type: feedback.TypeInterested, CreatedAt: at(3 * time.Minute)},
		},
	}
	g := NewGrouper(repo)

	sessions, err := g.Sessions(context.Background(), "l1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	// Newest session first: s2's latest (10m) beats s1's (3m, from feedback).
	if sessions[0].SessionID != "s2" || sessions[1].SessionID != "s1" {
		t.Fatalf("expected order s2, s1; got %q, %q", sessions[0].SessionID, sessions[1].SessionID)
	}
	if !sessions[1].LatestTime.Equal(at(3 * time.Minute)) {
		t.Fatalf("latest time must include feedback timestamps, got %v", sessions[1].LatestTime)
	}
	if len(sessions[1].Entries) != 2 || len(sessions[1].Feedback) != 1 {
		t.Fatalf("s1 must hold 2 entries and 1 feedback, got %d/%d", len(sessions[1].Entries), len(sessions[1].Feedback))
	}
	// Entries within a session stay chronological.
	if !sessions[1].Entries[0].CreatedAt.Before(sessions[1].Entries[1].CreatedAt) {
		t.Fatalf("entries must be chronological within a session")
	}
}

func TestSessions_FeedbackWithoutSessionExcluded(t *testing.T) {
	repo := &fakeRepo{
		entries: []activity.Entry{
			{ID: "e1", LeadID: "l1", SessionID: "s1", Message: "call started", CreatedAt: at(0)},
		},
		feedback: []feedback.Feedback{
			{ID: "f1", LeadID: "l1", SessionID: "", Type: feedback.TypeCallback, CreatedAt: at(time.Minute)},
		},
	}
	g := NewGrouper(repo)

	sessions, err := g.Sessions(context.Background(), "l1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(sessions[0].Feedback) != 0 {
		t.Fatalf("uncorrelated feedback must not join any session")
	}
}

func TestSessions_EmptyLeadIDRejected(t *testing.T) {
	g := NewGrouper(&fakeRepo{})
	if _, err := g.Sessions(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
}
