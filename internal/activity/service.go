package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for activity entries.
// Writes are append-only; there are no update or delete methods.
type Repository interface {
	AppendActivity(ctx context.Context, e Entry) error
	ListActivityByLead(ctx context.Context, leadID string) ([]Entry, error)
}

// Service records live-call activity.
//
// Callers should treat activity logging as best-effort; a failed append must
// not abort the call flow it describes.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("activity: invalid entry")

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("activity: repository not configured")
	}
	if e.AgentID == "" {
		return ErrInvalidEntry
	}
	if e.Message == "" {
		return ErrInvalidEntry
	}
	if e.Kind == "" {
		e.Kind = KindInfo
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.AppendActivity(ctx, e)
}

// ForLead returns all activity entries for a lead, unordered.
// Use timeline.Grouper for session reconstruction.
func (s *Service) ForLead(ctx context.Context, leadID string) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("activity: repository not configured")
	}
	if leadID == "" {
		return nil, ErrInvalidEntry
	}
	return s.repo.ListActivityByLead(ctx, leadID)
}
