package agents

import "time"

// Agent is a sales user with role "agent".
//
// Invariant: a deactivated agent keeps every historical record (assignments,
// calls, feedback) but is not eligible for new assignments.
type Agent struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`

	// PasswordHash is a bcrypt hash. Never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	Role   string `json:"role" db:"role"`
	Active bool   `json:"active" db:"active"`

	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`
	Department  string `json:"department,omitempty" db:"department"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
