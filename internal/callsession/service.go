package callsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/leads"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("callsession: session not found")
	ErrForbidden         = errors.New("callsession: forbidden")
	ErrInvalidInput      = errors.New("callsession: invalid input")
	ErrAlreadyFinished   = errors.New("callsession: session already has a terminal status")
	ErrPersistenceFailed = errors.New("callsession: write failed")
)

// Repository is the persistence contract for call sessions.
// Not-found lead lookups surface leads.ErrNotFound.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetLead(ctx context.Context, id string) (leads.Lead, error)
	UpdateLead(ctx context.Context, l leads.Lead) error

	CreateCallSession(ctx context.Context, cs CallSession) error
	GetCallSession(ctx context.Context, id string) (CallSession, error)
	UpdateCallSession(ctx context.Context, cs CallSession) error
	ListCallSessionsByLead(ctx context.Context, leadID string) ([]CallSession, error)

	AppendActivity(ctx context.Context, e activity.Entry) error
}

// Service tracks call attempts and applies their outcomes to leads.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type StartInput struct {
	LeadID string

	// SessionID is generated by the calling client so that activity entries
	// and feedback can correlate even before this row exists.
	SessionID activity.SessionID
}

// Start opens a call session in the initiated state. Only the agent the lead
// is assigned to may start a call against it.
func (s *Service) Start(ctx context.Context, actor auth.Actor, in StartInput) (CallSession, error) {
	if in.LeadID == "" || in.SessionID == "" || actor.ID == "" {
		return CallSession{}, ErrInvalidInput
	}

	lead, err := s.repo.GetLead(ctx, in.LeadID)
	if err != nil {
		return CallSession{}, err
	}
	if lead.AssignedAgentID != actor.ID {
		return CallSession{}, ErrForbidden
	}

	now := s.clock().UTC()
	cs := CallSession{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		LeadID:    lead.ID,
		AgentID:   actor.ID,
		CallTime:  now,
		Status:    StatusInitiated,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateCallSession(ctx, cs); err != nil {
			return err
		}
		return s.repo.AppendActivity(ctx, activity.Entry{
			ID:        uuid.NewString(),
			AgentID:   actor.ID,
			LeadID:    lead.ID,
			SessionID: in.SessionID,
			Message:   "call started",
			Kind:      activity.KindInfo,
			CreatedAt: now,
		})
	})
	if err != nil {
		return CallSession{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return cs, nil
}

type OutcomeInput struct {
	CallID string
	Action Action

	// DurationSeconds is the client-reported elapsed time, stored as-is.
	DurationSeconds int
	Notes           string
}

// ReportOutcome moves an initiated session to a terminal status and stamps
// the implied lead status. Reporting on an already-terminal session fails
// with ErrAlreadyFinished; it never silently re-applies.
func (s *Service) ReportOutcome(ctx context.Context, actor auth.Actor, in OutcomeInput) (CallSession, error) {
	if in.CallID == "" || actor.ID == "" {
		return CallSession{}, ErrInvalidInput
	}
	out, ok := outcomes[in.Action]
	if !ok {
		return CallSession{}, ErrInvalidInput
	}
	if in.DurationSeconds < 0 {
		return CallSession{}, ErrInvalidInput
	}

	var result CallSession
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		cs, err := s.repo.GetCallSession(ctx, in.CallID)
		if err != nil {
			return err
		}
		if cs.AgentID != actor.ID {
			return ErrForbidden
		}
		if cs.Status.Terminal() {
			return ErrAlreadyFinished
		}

		now := s.clock().UTC()
		cs.Status = out.session
		cs.EndTime = &now
		if in.DurationSeconds > 0 {
			cs.DurationSeconds = in.DurationSeconds
		}
		if in.Notes != "" {
			cs.Notes = in.Notes
		}
		if err := s.repo.UpdateCallSession(ctx, cs); err != nil {
			return err
		}

		if !out.keepLeadStatus {
			lead, err := s.repo.GetLead(ctx, cs.LeadID)
			if err != nil {
				return err
			}
			lead.Status = out.lead
			lead.UpdatedAt = now
			if err := s.repo.UpdateLead(ctx, lead); err != nil {
				return err
			}
		}

		if err := s.repo.AppendActivity(ctx, activity.Entry{
			ID:        uuid.NewString(),
			AgentID:   actor.ID,
			LeadID:    cs.LeadID,
			SessionID: cs.SessionID,
			Message:   "call ended: " + string(in.Action),
			Kind:      activity.KindInfo,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		result = cs
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound),
			errors.Is(err, ErrForbidden),
			errors.Is(err, ErrAlreadyFinished),
			errors.Is(err, leads.ErrNotFound):
			return CallSession{}, err
		}
		return CallSession{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return result, nil
}

type LogInput struct {
	LeadID    string
	SessionID activity.SessionID
	Message   string
	Kind      activity.Kind
}

// LogActivity appends a live-call event emitted by the call interface.
// It never mutates lead or session state.
func (s *Service) LogActivity(ctx context.Context, actor auth.Actor, in LogInput) error {
	if actor.ID == "" || in.Message == "" {
		return ErrInvalidInput
	}
	kind := in.Kind
	if kind == "" {
		kind = activity.KindInfo
	}
	return s.repo.AppendActivity(ctx, activity.Entry{
		ID:        uuid.NewString(),
		AgentID:   actor.ID,
		LeadID:    in.LeadID,
		SessionID: in.SessionID,
		Message:   in.Message,
		Kind:      kind,
		CreatedAt: s.clock().UTC(),
	})
}

// ForLead lists the lead's call attempts, most recent first not guaranteed;
// callers sort as needed.
func (s *Service) ForLead(ctx context.Context, leadID string) ([]CallSession, error) {
	if leadID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListCallSessionsByLead(ctx, leadID)
}
