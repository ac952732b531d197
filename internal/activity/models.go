package activity

import "time"

// SessionID is the client-generated correlation id that links a call attempt's
// activity entries, the CallSession row and any feedback submitted for it.
// It is NOT the database id of a CallSession; feedback may reference a session
// that never produced a CallSession row.
type SessionID string

// Entry is an immutable, append-only record emitted by the live call
// interface while an agent is on a call.
//
// Invariants:
// - Entries are never updated or deleted (except via lead cascade-delete).
// - Entries are audit/grouping data only; they never drive lead state.
type Entry struct {
	ID      string `json:"id" db:"id"`
	AgentID string `json:"agent_id" db:"agent_id"`
	LeadID  string `json:"lead_id,omitempty" db:"lead_id"`

	// SessionID correlates this entry with its call attempt.
	SessionID SessionID `json:"session_id,omitempty" db:"session_id"`

	Message string `json:"message" db:"message"`
	Kind    Kind   `json:"kind" db:"kind"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)
