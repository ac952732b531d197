package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-platform/internal/agents"
	"crm-platform/internal/auth"
	"crm-platform/internal/leads"
	"crm-platform/internal/rbac"

	"github.com/google/uuid"
)

var (
	ErrForbidden        = errors.New("assignment: forbidden")
	ErrInvalidInput     = errors.New("assignment: invalid input")
	ErrAgentInactive    = errors.New("assignment: agent is not active")
	ErrAssignmentFailed = errors.New("assignment: assignment failed")
)

// Repository is the persistence contract for the assignment engine.
//
// InTx must execute fn atomically: every write performed through the
// tx-scoped context is either fully committed or fully rolled back.
// Not-found lookups surface leads.ErrNotFound / agents.ErrNotFound.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetLead(ctx context.Context, id string) (leads.Lead, error)
	UpdateLead(ctx context.Context, l leads.Lead) error
	GetAgent(ctx context.Context, id string) (agents.Agent, error)
	GetProject(ctx context.Context, id string) (leads.Project, error)

	AppendAssignmentHistory(ctx context.Context, h HistoryEntry) error
	AppendReassignment(ctx context.Context, r Reassignment) error

	ListReassignmentsByLead(ctx context.Context, leadID string) ([]Reassignment, error)
	ListAssignmentHistoryByLead(ctx context.Context, leadID string) ([]HistoryEntry, error)
}

// Service is the single writer of lead assignment state.
//
// Rules:
// - History is unconditional: one HistoryEntry per action.
// - Reassignment tracking is conditional: a record exists only when the lead
//   moved between two different agents.
// - All writes of one action share one transaction; a storage failure leaves
//   the lead untouched.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type AssignInput struct {
	LeadID  string
	AgentID string

	// ProjectID optionally retargets the lead's project.
	ProjectID string
	Note      string
}

// Assign assigns a lead to an agent on behalf of actor.
//
// If the lead currently belongs to a different agent a Reassignment is
// recorded first; assigning a lead to its current agent records history only.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, in AssignInput) error {
	if in.LeadID == "" || in.AgentID == "" || actor.ID == "" {
		return ErrInvalidInput
	}

	agent, err := s.repo.GetAgent(ctx, in.AgentID)
	if err != nil {
		return err
	}
	if !agent.Active {
		return ErrAgentInactive
	}
	if in.ProjectID != "" {
		if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
			return err
		}
	}

	note := noteOrDefault(in.Note, "Manual assignment")

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		return s.assignOne(ctx, actor, in.LeadID, agent.ID, in.ProjectID, note, HistoryTypeManual, "Reassigned | ")
	})
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) || errors.Is(err, agents.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrAssignmentFailed, err)
	}
	return nil
}

type BulkAssignInput struct {
	LeadIDs   []string
	AgentID   string
	ProjectID string
	Note      string
}

type BulkAssignResult struct {
	// Assigned counts leads processed, including duplicate ids re-processed
	// as same-agent re-assignments (history only, no Reassignment).
	Assigned int `json:"assigned"`

	// Missing holds ids that matched no lead; they do not fail the batch.
	Missing []string `json:"missing,omitempty"`
}

// BulkAssign applies Assign semantics to each lead id in order, inside one
// transaction. A storage failure mid-batch rolls back the whole batch.
func (s *Service) BulkAssign(ctx context.Context, actor auth.Actor, in BulkAssignInput) (BulkAssignResult, error) {
	if len(in.LeadIDs) == 0 || in.AgentID == "" || actor.ID == "" {
		return BulkAssignResult{}, ErrInvalidInput
	}

	agent, err := s.repo.GetAgent(ctx, in.AgentID)
	if err != nil {
		return BulkAssignResult{}, err
	}
	if !agent.Active {
		return BulkAssignResult{}, ErrAgentInactive
	}
	if in.ProjectID != "" {
		if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
			return BulkAssignResult{}, err
		}
	}

	note := noteOrDefault(in.Note, "Bulk assignment")

	var out BulkAssignResult
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		for _, leadID := range in.LeadIDs {
			err := s.assignOne(ctx, actor, leadID, agent.ID, in.ProjectID, note, HistoryTypeBulk, "Bulk reassignment | ")
			if errors.Is(err, leads.ErrNotFound) {
				out.Missing = append(out.Missing, leadID)
				continue
			}
			if err != nil {
				return err
			}
			out.Assigned++
		}
		return nil
	})
	if err != nil {
		return BulkAssignResult{}, fmt.Errorf("%w: %v", ErrAssignmentFailed, err)
	}
	return out, nil
}

type SelfReassignInput struct {
	LeadID    string
	ToAgentID string
	Reason    string
}

// SelfReassign lets an agent hand off a lead they own to another active agent.
// The reason is mandatory and a Reassignment is always recorded; the lead
// lands in status "reassigned" rather than "assigned".
func (s *Service) SelfReassign(ctx context.Context, actor auth.Actor, in SelfReassignInput) error {
	if in.LeadID == "" || in.ToAgentID == "" || actor.ID == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrInvalidInput
	}
	if actor.Role != rbac.RoleAgent {
		return ErrForbidden
	}
	if in.ToAgentID == actor.ID {
		return ErrInvalidInput
	}

	target, err := s.repo.GetAgent(ctx, in.ToAgentID)
	if err != nil {
		return err
	}
	if !target.Active {
		return ErrAgentInactive
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		lead, err := s.repo.GetLead(ctx, in.LeadID)
		if err != nil {
			return err
		}
		if lead.AssignedAgentID != actor.ID {
			return ErrForbidden
		}

		now := s.clock().UTC()

		if err := s.repo.AppendReassignment(ctx, Reassignment{
			ID:           uuid.NewString(),
			LeadID:       lead.ID,
			FromAgentID:  actor.ID,
			ToAgentID:    target.ID,
			Reason:       in.Reason,
			ReassignedAt: now,
		}); err != nil {
			return err
		}

		lead.AssignedAgentID = target.ID
		lead.AssignedDate = &now
		lead.Status = leads.StatusReassigned
		lead.UpdatedAt = now
		if err := s.repo.UpdateLead(ctx, lead); err != nil {
			return err
		}

		return s.repo.AppendAssignmentHistory(ctx, HistoryEntry{
			ID:              uuid.NewString(),
			LeadID:          lead.ID,
			AgentID:         target.ID,
			AssignedByID:    actor.ID,
			PreviousAgentID: actor.ID,
			Note:            in.Reason,
			Type:            HistoryTypeSelf,
			AssignedAt:      now,
		})
	})
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) || errors.Is(err, ErrForbidden) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrAssignmentFailed, err)
	}
	return nil
}

// HistoryForLead returns the full audit trail for a lead, oldest first.
func (s *Service) HistoryForLead(ctx context.Context, leadID string) ([]HistoryEntry, error) {
	if leadID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListAssignmentHistoryByLead(ctx, leadID)
}

// ReassignmentsForLead returns the hand-off records for a lead.
func (s *Service) ReassignmentsForLead(ctx context.Context, leadID string) ([]Reassignment, error) {
	if leadID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListReassignmentsByLead(ctx, leadID)
}

// assignOne performs the shared single-lead assignment write set. Must run
// inside a repository transaction.
func (s *Service) assignOne(ctx context.Context, actor auth.Actor, leadID, agentID, projectID, note string, htype HistoryType, reasonPrefix string) error {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	previousAgent := lead.AssignedAgentID

	// Hand-off tracking: only when an actual agent change happens.
	if previousAgent != "" && previousAgent != agentID {
		if err := s.repo.AppendReassignment(ctx, Reassignment{
			ID:           uuid.NewString(),
			LeadID:       lead.ID,
			FromAgentID:  previousAgent,
			ToAgentID:    agentID,
			Reason:       reasonPrefix + note,
			ReassignedAt: now,
		}); err != nil {
			return err
		}
	}

	lead.AssignedAgentID = agentID
	lead.AssignedDate = &now
	lead.Status = leads.StatusAssigned
	lead.UpdatedAt = now
	if projectID != "" {
		lead.ProjectID = projectID
	}
	if err := s.repo.UpdateLead(ctx, lead); err != nil {
		return err
	}

	return s.repo.AppendAssignmentHistory(ctx, HistoryEntry{
		ID:              uuid.NewString(),
		LeadID:          lead.ID,
		AgentID:         agentID,
		AssignedByID:    actor.ID,
		PreviousAgentID: previousAgent,
		ProjectID:       projectID,
		Note:            note,
		Type:            htype,
		AssignedAt:      now,
	})
}

func noteOrDefault(note, fallback string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return fallback
	}
	return note
}
