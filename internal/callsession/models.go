package callsession

import (
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/leads"
)

// CallSession is one discrete call attempt against a lead.
//
// State machine:
//
//	initiated --(agent reports outcome)--> completed | busy | not_answered |
//	                                       wrong_number | callback_scheduled |
//	                                       ended_manual
//
// "initiated" is the sole creation state; all six others are terminal.
// A session that never receives an outcome stays open indefinitely; no
// timeout is enforced.
//
// DurationSeconds comes from the client-side call timer and is stored as
// reported. There is no server-side verification; call telemetry originates
// outside this service's control.
type CallSession struct {
	ID string `json:"id" db:"id"`

	// SessionID is the client correlation id shared with activity entries
	// and feedback. Distinct from the database id.
	SessionID activity.SessionID `json:"session_id" db:"session_id"`

	LeadID  string `json:"lead_id" db:"lead_id"`
	AgentID string `json:"agent_id" db:"agent_id"`

	CallTime time.Time  `json:"call_time" db:"call_time"`
	EndTime  *time.Time `json:"end_time,omitempty" db:"end_time"`

	Status Status `json:"status" db:"status"`

	DurationSeconds int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	Notes         string `json:"notes,omitempty" db:"notes"`
	RecordingPath string `json:"recording_path,omitempty" db:"recording_path"`
}

type Status string

const (
	StatusInitiated         Status = "initiated"
	StatusCompleted         Status = "completed"
	StatusBusy              Status = "busy"
	StatusNotAnswered       Status = "not_answered"
	StatusWrongNumber       Status = "wrong_number"
	StatusCallbackScheduled Status = "callback_scheduled"
	StatusEndedManual       Status = "ended_manual"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusNotAnswered,
		StatusWrongNumber, StatusCallbackScheduled, StatusEndedManual:
		return true
	default:
		return false
	}
}

// Action is the outcome an agent reports when closing a call.
type Action string

const (
	ActionInterested    Action = "interested"
	ActionNotInterested Action = "not_interested"
	ActionBusy          Action = "busy"
	ActionNotAnswered   Action = "not_answered"
	ActionWrongNumber   Action = "wrong_number"
	ActionCallback      Action = "callback"
	ActionEndManual     Action = "end_manual"
)

// outcome maps an action to the terminal session status and the lead status
// it implies. keepLeadStatus marks the manual-end case, which closes the
// session without touching the lead.
type outcome struct {
	session        Status
	lead           leads.Status
	keepLeadStatus bool
}

var outcomes = map[Action]outcome{
	ActionInterested:    {session: StatusCompleted, lead: leads.StatusInterested},
	ActionNotInterested: {session: StatusCompleted, lead: leads.StatusNotInterested},
	ActionBusy:          {session: StatusBusy, lead: leads.StatusCallback},
	ActionNotAnswered:   {session: StatusNotAnswered, lead: leads.StatusCallback},
	ActionWrongNumber:   {session: StatusWrongNumber, lead: leads.StatusNotInterested},
	ActionCallback:      {session: StatusCallbackScheduled, lead: leads.StatusCallback},
	ActionEndManual:     {session: StatusEndedManual, keepLeadStatus: true},
}

// ParseAction validates a raw outcome action.
func ParseAction(raw string) (Action, bool) {
	_, ok := outcomes[Action(raw)]
	if !ok {
		return "", false
	}
	return Action(raw), true
}
