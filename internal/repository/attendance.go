package repository

import (
	"context"

	"github.com/meetlite/meetlite/internal/domain"
)

// Attendance status as seen by StatusOf when no record exists for the pair.
const AttendanceStatusNone = "none"

// AttendanceRegistry owns the status column of the attendances table and
// the at-most-one-active-record-per-(event, user) invariant. The invariant
// is enforced by the schema's unique constraint on the pair, not by
// application-level existence checks.
type AttendanceRegistry interface {
	// Activate creates an active attendance for the pair, or flips an
	// existing cancelled record back to active. The reactivated result
	// distinguishes the two. Returns domain.ErrAlreadyRSVPed when an active
	// record already exists; two concurrent calls for the same pair race at
	// the storage layer and exactly one wins.
	Activate(ctx context.Context, eventID, userID string) (reactivated bool, err error)

	// Deactivate flips an active record to cancelled. Returns
	// domain.ErrNotRSVPed when the pair has no active record.
	Deactivate(ctx context.Context, eventID, userID string) error

	// StatusOf reports active, cancelled, or AttendanceStatusNone.
	StatusOf(ctx context.Context, eventID, userID string) (string, error)

	// ListActiveByUser returns the caller's active attendances on events
	// that have not yet started, soonest first.
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Attendance, error)

	// RosterOf returns the active attendees of an event in join order.
	RosterOf(ctx context.Context, eventID string) ([]*domain.RosterEntry, error)

	// CountActive re-derives the true number of active records for an
	// event. Used by reconciliation, never on the request path.
	CountActive(ctx context.Context, eventID string) (int, error)
}
