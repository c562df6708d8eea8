package domain

import "time"

// Event represents a capacity-limited event created by an owner.
//
// ConfirmedCount is mutated only through the capacity ledger's conditional
// admit/release statements. No other code path may read-modify-write it.
type Event struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartsAt       time.Time `json:"starts_at"`
	Capacity       int       `json:"capacity"`
	ConfirmedCount int       `json:"confirmed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Remaining returns the number of open slots.
func (e *Event) Remaining() int {
	return e.Capacity - e.ConfirmedCount
}

// IsFull returns true when no slots remain.
func (e *Event) IsFull() bool {
	return e.ConfirmedCount >= e.Capacity
}

// IsPast reports whether the event has already started at the given instant.
func (e *Event) IsPast(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// CapacitySnapshot is the post-operation view of an event's counter returned
// by ledger operations and committed join/leave results.
type CapacitySnapshot struct {
	ConfirmedCount int `json:"confirmed_count"`
	Capacity       int `json:"capacity"`
}
