package repository

import (
	"context"

	"github.com/meetlite/meetlite/internal/domain"
)

// EventRepository handles event metadata persistence. The RSVP coordinator
// consumes only GetByID from it; everything else serves the CRUD surface.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListUpcoming(ctx context.Context, limit, offset int) ([]*domain.Event, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error

	// Delete removes the event and all of its attendance records in a
	// single transaction.
	Delete(ctx context.Context, id string) error
}
