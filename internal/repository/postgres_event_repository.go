package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meetlite/meetlite/internal/domain"
)

// eventColumns is the canonical column list for event scans.
const eventColumns = `id, owner_id, title, description, location, starts_at,
	capacity, confirmed_count, created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartsAt,
		&e.Capacity,
		&e.ConfirmedCount,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

// Create inserts a new event. New events always start with a zero counter.
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (id, owner_id, title, description, location, starts_at,
			capacity, confirmed_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.OwnerID,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.Capacity,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return event, nil
}

// ListUpcoming retrieves events that have not yet started, soonest first.
func (r *PostgresEventRepository) ListUpcoming(ctx context.Context, limit, offset int) ([]*domain.Event, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE starts_at > now()`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count upcoming events: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events
		WHERE starts_at > now()
		ORDER BY starts_at ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, total, rows.Err()
}

// ListByOwner retrieves all events created by an owner.
func (r *PostgresEventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE owner_id = $1
		ORDER BY starts_at ASC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Update rewrites event metadata. confirmed_count is deliberately not in
// the column list; only the ledger writes it. The capacity guard sits in
// the WHERE clause so it is checked against the live counter: an admit
// landing between the caller's read and this write cannot slip capacity
// below the confirmed count.
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, location = $4, starts_at = $5,
			capacity = $6, updated_at = $7
		WHERE id = $1 AND confirmed_count <= $6
	`
	event.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.Capacity,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event %s: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, event.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check event %s: %w", event.ID, err)
		}
		if !exists {
			return domain.ErrEventNotFound
		}
		return domain.ErrCapacityBelowConfirmed
	}
	return nil
}

// Delete removes the event and its attendance records in one transaction,
// so no attendance row can outlive its event.
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete event %s: %w", id, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM attendances WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("delete attendances for event %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete event %s: %w", id, err)
	}
	return nil
}
