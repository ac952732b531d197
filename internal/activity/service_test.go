package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRepo struct {
	entries []Entry
}

func (r *fakeRepo) AppendActivity(ctx context.Context, e Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRepo) ListActivityByLead(ctx context.Context, leadID string) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.LeadID == leadID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAppend_FillsDefaults(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	err := svc.Append(context.Background(), Entry{AgentID: "a1", LeadID: "l1", SessionID: "s1", Message: "dialing"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Fatalf("id must be generated")
	}
	if e.Kind != KindInfo {
		t.Fatalf("kind defaults to info, got %q", e.Kind)
	}
	if e.CreatedAt.IsZero() {
		t.Fatalf("timestamp must be stamped")
	}
}

func TestAppend_RequiresAgentAndMessage(t *testing.T) {
	svc := NewService(&fakeRepo{})

	if err := svc.Append(context.Background(), Entry{Message: "x"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	if err := svc.Append(context.Background(), Entry{AgentID: "a1"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}
