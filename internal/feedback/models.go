package feedback

import (
	"time"

	"crm-platform/internal/activity"
)

// Feedback is the structured outcome an agent records after a call.
//
// Exactly one variant pointer is non-nil, matching Type. The old
// many-nullable-columns shape is deliberately not modeled; variant payloads
// keep irrelevant fields out of existence entirely.
type Feedback struct {
	ID      string `json:"id" db:"id"`
	LeadID  string `json:"lead_id" db:"lead_id"`
	AgentID string `json:"agent_id" db:"agent_id"`

	// SessionID correlates this feedback with a call attempt. Optional: a
	// feedback row may exist without any CallSession row.
	SessionID activity.SessionID `json:"session_id,omitempty" db:"session_id"`

	Type Type `json:"type" db:"type"`

	Interested    *Interested    `json:"interested,omitempty"`
	NotInterested *NotInterested `json:"not_interested,omitempty"`
	Callback      *Callback      `json:"callback,omitempty"`

	AdditionalNotes     string `json:"additional_notes,omitempty" db:"additional_notes"`
	RecordingPath       string `json:"recording_path,omitempty" db:"recording_path"`
	CallDurationSeconds int    `json:"call_duration_seconds,omitempty" db:"call_duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Type string

const (
	TypeInterested    Type = "interested"
	TypeNotInterested Type = "not_interested"
	TypeCallback      Type = "callback"
)

func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeInterested, TypeNotInterested, TypeCallback:
		return Type(raw), true
	default:
		return "", false
	}
}

// Interested captures buying intent details.
type Interested struct {
	Project            string        `json:"project,omitempty"`
	Location           string        `json:"location,omitempty"`
	Configuration      string        `json:"configuration,omitempty"`
	Budget             string        `json:"budget,omitempty"`
	PossessionTimeline string        `json:"possession_timeline,omitempty"`
	InterestLevel      InterestLevel `json:"interest_level,omitempty"`
}

type InterestLevel string

const (
	InterestHigh   InterestLevel = "high"
	InterestMedium InterestLevel = "medium"
	InterestLow    InterestLevel = "low"
)

// NotInterested records why the lead declined.
type NotInterested struct {
	Reason string `json:"reason,omitempty"`
}

// Callback schedules a follow-up call.
type Callback struct {
	Time     time.Time `json:"time"`
	Notes    string    `json:"notes,omitempty"`
	Priority string    `json:"priority,omitempty"` // high, medium, low
}
