package user

import "time"

// ActionRegister marks an activity log entry written by a successful registration.
const ActionRegister = "REGISTER"

// ActivityLog is an append-only audit record of a user action.
type ActivityLog struct {
	ID        string
	Action    string
	UserID    string
	Details   string
	CreatedAt time.Time
}
