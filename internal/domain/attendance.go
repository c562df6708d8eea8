package domain

import "time"

// Attendance status constants. Waitlisted is reserved for a future
// extension; nothing in the current flows produces it.
const (
	AttendanceStatusActive     = "active"
	AttendanceStatusCancelled  = "cancelled"
	AttendanceStatusWaitlisted = "waitlisted"
)

// Attendance records one user's relationship to one event. The
// (event_id, user_id) pair is unique at the schema level; a leave flips the
// record to cancelled rather than deleting it, so a re-join reuses the same
// row and the uniqueness slot is never given up.
type Attendance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive returns true for a live attendance.
func (a *Attendance) IsActive() bool {
	return a.Status == AttendanceStatusActive
}

// RosterEntry is one attendee on an event's roster.
type RosterEntry struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}
