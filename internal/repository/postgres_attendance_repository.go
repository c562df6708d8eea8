package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meetlite/meetlite/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresAttendanceRepository implements AttendanceRegistry using
// PostgreSQL. The unique constraint on (event_id, user_id) is the source
// of truth for the one-active-record invariant; this code never does an
// existence check before inserting, it lets the constraint arbitrate and
// translates the outcome.
type PostgresAttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAttendanceRepository creates a new PostgresAttendanceRepository
func NewPostgresAttendanceRepository(pool *pgxpool.Pool) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{pool: pool}
}

// Activate inserts an active attendance, or revives a cancelled one. The
// ON CONFLICT arm only fires when the existing record is cancelled; when it
// is already active the statement touches nothing and returns no row, which
// maps to ErrAlreadyRSVPed. xmax = 0 distinguishes a fresh insert from a
// revived row.
func (r *PostgresAttendanceRepository) Activate(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		INSERT INTO attendances (id, event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		WHERE attendances.status = $6
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		eventID,
		userID,
		domain.AttendanceStatusActive,
		time.Now().UTC(),
		domain.AttendanceStatusCancelled,
	).Scan(&inserted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrAlreadyRSVPed
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Two inserts raced and this one lost the constraint.
			return false, domain.ErrAlreadyRSVPed
		}
		return false, fmt.Errorf("activate attendance (%s, %s): %w", eventID, userID, err)
	}
	return !inserted, nil
}

// Deactivate flips an active attendance to cancelled.
func (r *PostgresAttendanceRepository) Deactivate(ctx context.Context, eventID, userID string) error {
	query := `
		UPDATE attendances
		SET status = $3, updated_at = now()
		WHERE event_id = $1 AND user_id = $2 AND status = $4
	`
	tag, err := r.pool.Exec(ctx, query, eventID, userID,
		domain.AttendanceStatusCancelled, domain.AttendanceStatusActive)
	if err != nil {
		return fmt.Errorf("deactivate attendance (%s, %s): %w", eventID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotRSVPed
	}
	return nil
}

// StatusOf reports the pair's current status.
func (r *PostgresAttendanceRepository) StatusOf(ctx context.Context, eventID, userID string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM attendances WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AttendanceStatusNone, nil
		}
		return "", fmt.Errorf("attendance status (%s, %s): %w", eventID, userID, err)
	}
	return status, nil
}

// ListActiveByUser returns active attendances on future events.
func (r *PostgresAttendanceRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Attendance, error) {
	query := `
		SELECT a.id, a.event_id, a.user_id, a.status, a.created_at, a.updated_at
		FROM attendances a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1 AND a.status = $2 AND e.starts_at > now()
		ORDER BY e.starts_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, domain.AttendanceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list attendances for user %s: %w", userID, err)
	}
	defer rows.Close()

	attendances := make([]*domain.Attendance, 0)
	for rows.Next() {
		a := &domain.Attendance{}
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		attendances = append(attendances, a)
	}
	return attendances, rows.Err()
}

// RosterOf returns the event's active attendees, earliest join first.
// updated_at is the join instant: it is rewritten whenever a cancelled
// record flips back to active.
func (r *PostgresAttendanceRepository) RosterOf(ctx context.Context, eventID string) ([]*domain.RosterEntry, error) {
	query := `
		SELECT a.user_id, u.name, a.updated_at
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1 AND a.status = $2
		ORDER BY a.updated_at ASC
	`
	rows, err := r.pool.Query(ctx, query, eventID, domain.AttendanceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("roster for event %s: %w", eventID, err)
	}
	defer rows.Close()

	roster := make([]*domain.RosterEntry, 0)
	for rows.Next() {
		entry := &domain.RosterEntry{}
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

// CountActive re-derives the true active attendance count for an event.
func (r *PostgresAttendanceRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendances WHERE event_id = $1 AND status = $2`,
		eventID, domain.AttendanceStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active attendances for event %s: %w", eventID, err)
	}
	return count, nil
}
