package models

import "time"

// UserRole represents the two roles known to the gradebook.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is an identity returned by the grade service. Year is only set for students.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	Year     *int     `json:"year,omitempty"`
}

// Session is created at login and destroyed at logout. Operations receive a copy.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Ack is the acknowledgement returned by mutating calls. Degraded marks an
// acknowledgement that was synthesized while the grade service was unreachable.
type Ack struct {
	Message  string `json:"message"`
	Degraded bool   `json:"degraded,omitempty"`
}
