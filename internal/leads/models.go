package leads

import "time"

// Lead is a prospective customer tracked through the sales pipeline.
//
// Invariants:
// - Mobile is the sole natural key; imports and creates dedupe on it.
// - Status moves only through the assignment, callsession and feedback
//   services. Nothing else writes it.
// - A lead exclusively owns its call sessions, feedback, reassignments,
//   assignment history and activity entries; deleting the lead deletes them.
type Lead struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email,omitempty" db:"email"`
	Mobile string `json:"mobile" db:"mobile"`

	Pincode     string `json:"pincode,omitempty" db:"pincode"`
	ProjectName string `json:"project_name,omitempty" db:"project_name"`
	ProjectID   string `json:"project_id,omitempty" db:"project_id"`
	Source      string `json:"source,omitempty" db:"source"`
	Year        int    `json:"year,omitempty" db:"year"`
	Location    string `json:"location,omitempty" db:"location"`

	AlternatePhone string `json:"alternate_phone,omitempty" db:"alternate_phone"`
	Address        string `json:"address,omitempty" db:"address"`
	City           string `json:"city,omitempty" db:"city"`
	State          string `json:"state,omitempty" db:"state"`
	Country        string `json:"country,omitempty" db:"country"`

	Priority string `json:"priority,omitempty" db:"priority"`
	Category string `json:"category,omitempty" db:"category"`

	// AssignedAgentID is empty until the lead is assigned.
	AssignedAgentID string     `json:"assigned_agent_id,omitempty" db:"assigned_agent_id"`
	AssignedDate    *time.Time `json:"assigned_date,omitempty" db:"assigned_date"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Status is the closed lead status domain. Free-text statuses are rejected at
// the boundary; see ParseStatus.
type Status string

const (
	StatusNew           Status = "new"
	StatusAssigned      Status = "assigned"
	StatusInterested    Status = "interested"
	StatusNotInterested Status = "not_interested"
	StatusCallback      Status = "callback"
	StatusCompleted     Status = "completed"
	StatusReassigned    Status = "reassigned"
)

// ParseStatus validates a raw status value against the closed domain.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusNew, StatusAssigned, StatusInterested, StatusNotInterested,
		StatusCallback, StatusCompleted, StatusReassigned:
		return Status(raw), true
	default:
		return "", false
	}
}

// Project is a sales project leads can be assigned under.
type Project struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Location is a geographic area leads are tagged with. Name is unique.
type Location struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Name        string
	Mobile      string
	ProjectName string
	Pincode     string
	Status      Status
	AgentID     string

	// SortBy: id, name, created_at, assigned_date. SortOrder: asc, desc.
	SortBy    string
	SortOrder string
}
