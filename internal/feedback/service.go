package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/leads"

	"github.com/google/uuid"
)

var (
	ErrForbidden         = errors.New("feedback: forbidden")
	ErrInvalidInput      = errors.New("feedback: invalid input")
	ErrPersistenceFailed = errors.New("feedback: write failed")
)

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetLead(ctx context.Context, id string) (leads.Lead, error)
	UpdateLead(ctx context.Context, l leads.Lead) error

	CreateFeedback(ctx context.Context, f Feedback) error
	ListFeedbackByLead(ctx context.Context, leadID string) ([]Feedback, error)
}

// Service persists call outcomes and finalizes the lead's status.
//
// Lead status per feedback type:
//
//	interested     -> completed
//	not_interested -> not_interested
//	callback       -> callback
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type SubmitInput struct {
	LeadID    string
	Type      Type
	SessionID activity.SessionID

	Interested    *Interested
	NotInterested *NotInterested

	// CallbackTime is the raw client string for callback feedback. A trailing
	// "Z" is accepted and treated as UTC.
	CallbackTime     string
	CallbackNotes    string
	CallbackPriority string

	AdditionalNotes     string
	RecordingPath       string
	CallDurationSeconds int
}

// Submit validates and persists one feedback record, then stamps the lead.
// All validation happens before any write; an invalid callback time persists
// nothing.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput) (Feedback, error) {
	if in.LeadID == "" || actor.ID == "" {
		return Feedback{}, ErrInvalidInput
	}
	if _, ok := ParseType(string(in.Type)); !ok {
		return Feedback{}, ErrInvalidInput
	}

	f := Feedback{
		ID:                  uuid.NewString(),
		LeadID:              in.LeadID,
		AgentID:             actor.ID,
		SessionID:           in.SessionID,
		Type:                in.Type,
		AdditionalNotes:     in.AdditionalNotes,
		RecordingPath:       in.RecordingPath,
		CallDurationSeconds: in.CallDurationSeconds,
	}

	var leadStatus leads.Status
	switch in.Type {
	case TypeInterested:
		iv := in.Interested
		if iv == nil {
			iv = &Interested{}
		}
		if iv.InterestLevel != "" && !validInterestLevel(iv.InterestLevel) {
			return Feedback{}, ErrInvalidInput
		}
		f.Interested = iv
		leadStatus = leads.StatusCompleted

	case TypeNotInterested:
		nv := in.NotInterested
		if nv == nil || strings.TrimSpace(nv.Reason) == "" {
			return Feedback{}, ErrInvalidInput
		}
		f.NotInterested = nv
		leadStatus = leads.StatusNotInterested

	case TypeCallback:
		t, err := parseCallbackTime(in.CallbackTime)
		if err != nil {
			return Feedback{}, ErrInvalidInput
		}
		prio := in.CallbackPriority
		if prio == "" {
			prio = "medium"
		}
		if prio != "high" && prio != "medium" && prio != "low" {
			return Feedback{}, ErrInvalidInput
		}
		f.Callback = &Callback{Time: t, Notes: in.CallbackNotes, Priority: prio}
		leadStatus = leads.StatusCallback
	}

	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		lead, err := s.repo.GetLead(ctx, in.LeadID)
		if err != nil {
			return err
		}
		if lead.AssignedAgentID != actor.ID {
			return ErrForbidden
		}

		now := s.clock().UTC()
		f.CreatedAt = now
		if err := s.repo.CreateFeedback(ctx, f); err != nil {
			return err
		}

		lead.Status = leadStatus
		lead.UpdatedAt = now
		return s.repo.UpdateLead(ctx, lead)
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, leads.ErrNotFound) {
			return Feedback{}, err
		}
		return Feedback{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return f, nil
}

// ForLead lists all feedback submitted for a lead.
func (s *Service) ForLead(ctx context.Context, leadID string) ([]Feedback, error) {
	if leadID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListFeedbackByLead(ctx, leadID)
}

// parseCallbackTime accepts RFC 3339 timestamps. Clients commonly send the
// "Z" UTC suffix; normalize it to an explicit zero offset so both spellings
// parse to the same instant.
func parseCallbackTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("callback time required")
	}
	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}
	// datetime-local inputs omit seconds and offset; try those shapes too.
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable callback time %q", raw)
}

func validInterestLevel(l InterestLevel) bool {
	return l == InterestHigh || l == InterestMedium || l == InterestLow
}
