package domain

import "errors"

// Business rejections. These are expected outcomes under load or duplicate
// requests and are returned to callers as stable reason codes, never as
// wrapped storage errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("event is at capacity")
	ErrEventInPast   = errors.New("event has already started")
	ErrAlreadyRSVPed = errors.New("already attending this event")
	ErrNotRSVPed     = errors.New("no active attendance for this event")
	ErrNotOwner      = errors.New("caller does not own this event")

	// ErrCapacityBelowConfirmed rejects a capacity update that would strand
	// already-admitted attendees above the new limit. The guard is evaluated
	// inside the update statement, against the live counter.
	ErrCapacityBelowConfirmed = errors.New("capacity cannot drop below current confirmed count")

	// ErrCapacityFloor is returned by the ledger when a release would take
	// confirmed_count below zero. Seeing it outside a compensation path
	// means the counter and the attendance records have diverged.
	ErrCapacityFloor = errors.New("confirmed count already at zero")

	// ErrInconsistentState marks an internal invariant violation. It is
	// logged as an anomaly and surfaced, never silently repaired.
	ErrInconsistentState = errors.New("rsvp state inconsistent")

	// ErrTransient wraps a storage fault that is safe for the caller to
	// retry. Capacity is never left overstated behind it: the join path
	// compensates the ledger before surfacing it.
	ErrTransient = errors.New("transient storage fault")
)

// Auth errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
