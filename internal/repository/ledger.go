package repository

import (
	"context"

	"github.com/meetlite/meetlite/internal/domain"
)

// CapacityLedger owns the confirmed_count column of the events table.
// Both operations are single-row conditional updates: the capacity check
// and the counter mutation happen in one statement, so no admit or release
// can interleave between check and write, on this instance or any other.
type CapacityLedger interface {
	// Admit increments confirmed_count by one if a slot is free and returns
	// the post-increment snapshot. Returns domain.ErrEventFull when
	// confirmed_count has reached capacity and domain.ErrEventNotFound when
	// the event does not exist. No mutation happens on either rejection.
	Admit(ctx context.Context, eventID string) (domain.CapacitySnapshot, error)

	// Release decrements confirmed_count by one if it is above zero and
	// returns the post-decrement snapshot. Returns domain.ErrCapacityFloor
	// when the counter is already zero.
	Release(ctx context.Context, eventID string) (domain.CapacitySnapshot, error)
}

// CounterReconciler re-derives confirmed_count from active attendance rows.
// Implemented alongside the ledger, consumed only by the background
// reconciler.
type CounterReconciler interface {
	// ReconcileCounts corrects every diverged counter and returns the
	// number of events touched.
	ReconcileCounts(ctx context.Context) (int64, error)
}
