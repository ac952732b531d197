package assignment

import "time"

// HistoryEntry is the append-only audit trail of lead assignment.
//
// Invariants:
// - Exactly one entry is written per assignment action, whether or not the
//   agent actually changed.
// - Entries are never updated or deleted except via lead cascade-delete.
type HistoryEntry struct {
	ID     string `json:"id" db:"id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	// AgentID is the agent the lead was assigned TO.
	AgentID string `json:"agent_id" db:"agent_id"`

	// AssignedByID is the actor who performed the assignment (admin or, for
	// self-service reassignment, the handing-off agent).
	AssignedByID string `json:"assigned_by_id" db:"assigned_by_id"`

	// PreviousAgentID is empty when the lead was unassigned before.
	PreviousAgentID string `json:"previous_agent_id,omitempty" db:"previous_agent_id"`

	ProjectID string `json:"project_id,omitempty" db:"project_id"`
	Note      string `json:"note,omitempty" db:"note"`

	Type HistoryType `json:"type" db:"type"`

	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}

type HistoryType string

const (
	HistoryTypeManual HistoryType = "manual"
	HistoryTypeBulk   HistoryType = "bulk"
	HistoryTypeSelf   HistoryType = "self"
)

// Reassignment records a hand-off: an assignment that displaced a different
// prior agent. Written only when from != to, unlike HistoryEntry.
type Reassignment struct {
	ID     string `json:"id" db:"id"`
	LeadID string `json:"lead_id" db:"lead_id"`

	FromAgentID string `json:"from_agent_id" db:"from_agent_id"`
	ToAgentID   string `json:"to_agent_id" db:"to_agent_id"`

	Reason string `json:"reason" db:"reason"`

	ReassignedAt time.Time `json:"reassigned_at" db:"reassigned_at"`
}
