package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meetlite/meetlite/internal/domain"
)

// PostgresLedgerRepository implements CapacityLedger on the events table.
//
// A naive read-then-write of confirmed_count lets two concurrent requests
// read the same value and both pass the capacity check. Folding the check
// into the UPDATE's WHERE clause makes Postgres evaluate the guard and
// apply the increment under the row lock, so concurrent admits serialize
// on the event row and exactly capacity of them can ever succeed. This is
// the only mutation path for confirmed_count.
type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLedgerRepository creates a new PostgresLedgerRepository
func NewPostgresLedgerRepository(pool *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

// Admit conditionally increments confirmed_count for the event.
func (r *PostgresLedgerRepository) Admit(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	query := `
		UPDATE events
		SET confirmed_count = confirmed_count + 1, updated_at = now()
		WHERE id = $1 AND confirmed_count < capacity
		RETURNING confirmed_count, capacity
	`
	var snap domain.CapacitySnapshot
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&snap.ConfirmedCount, &snap.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CapacitySnapshot{}, r.rejectionFor(ctx, eventID, domain.ErrEventFull)
		}
		return domain.CapacitySnapshot{}, fmt.Errorf("admit event %s: %w", eventID, err)
	}
	return snap, nil
}

// Release conditionally decrements confirmed_count for the event.
func (r *PostgresLedgerRepository) Release(ctx context.Context, eventID string) (domain.CapacitySnapshot, error) {
	query := `
		UPDATE events
		SET confirmed_count = confirmed_count - 1, updated_at = now()
		WHERE id = $1 AND confirmed_count > 0
		RETURNING confirmed_count, capacity
	`
	var snap domain.CapacitySnapshot
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&snap.ConfirmedCount, &snap.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CapacitySnapshot{}, r.rejectionFor(ctx, eventID, domain.ErrCapacityFloor)
		}
		return domain.CapacitySnapshot{}, fmt.Errorf("release event %s: %w", eventID, err)
	}
	return snap, nil
}

// ReconcileCounts rewrites confirmed_count from the true number of active
// attendance rows wherever the two have diverged, and returns how many
// events were corrected. The request path never calls this; it exists for
// the background reconciler closing the window left by a crashed join.
func (r *PostgresLedgerRepository) ReconcileCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE events e
		SET confirmed_count = sub.n, updated_at = now()
		FROM (
			SELECT e2.id, COUNT(a.id) AS n
			FROM events e2
			LEFT JOIN attendances a ON a.event_id = e2.id AND a.status = 'active'
			GROUP BY e2.id
		) sub
		WHERE sub.id = e.id AND e.confirmed_count <> sub.n
	`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reconcile confirmed counts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rejectionFor disambiguates a guard failure from a missing row. The
// follow-up SELECT is outside the atomic operation, which is fine: it only
// picks the rejection reason, it never mutates.
func (r *PostgresLedgerRepository) rejectionFor(ctx context.Context, eventID string, guardErr error) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check event %s: %w", eventID, err)
	}
	if !exists {
		return domain.ErrEventNotFound
	}
	return guardErr
}
