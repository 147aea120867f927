package session

import (
	"time"

	"clinic/internal/platform/clinicapi"
)

// Session is the server-side record of a logged-in employee. Profile is the
// employee record as fetched at login, with credentials removed.
type Session struct {
	ID         string
	TokenHash  string
	EmployeeID string
	CategoryID string
	Profile    clinicapi.Employee
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

func (s Session) LoggedIn(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
