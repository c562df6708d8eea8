package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/dto"
	"github.com/meetlite/meetlite/internal/events"
	"github.com/meetlite/meetlite/internal/repository"
)

// EventService handles event metadata CRUD. It never touches
// confirmed_count; that column belongs to the ledger.
type EventService struct {
	eventRepo repository.EventRepository
	publisher events.Publisher
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repository.EventRepository, publisher events.Publisher) *EventService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &EventService{eventRepo: eventRepo, publisher: publisher}
}

// Create creates a new event owned by the caller
func (s *EventService) Create(ctx context.Context, ownerID string, req *dto.CreateEventRequest) (*domain.Event, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, errors.New(msg)
	}

	now := time.Now().UTC()
	event := &domain.Event{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		Capacity:       req.Capacity,
		ConfirmedCount: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Envelope{
		Type:    events.TypeEventCreated,
		EventID: event.ID,
		UserID:  ownerID,
	})
	return event, nil
}

// GetByID retrieves an event
func (s *EventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListUpcoming returns a page of events that have not started yet
func (s *EventService) ListUpcoming(ctx context.Context, filter *dto.ListEventsFilter) ([]*domain.Event, int, error) {
	filter.SetDefaults()
	return s.eventRepo.ListUpcoming(ctx, filter.Limit, filter.Offset)
}

// ListByOwner returns the caller's own events
func (s *EventService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return s.eventRepo.ListByOwner(ctx, ownerID)
}

// Update modifies event metadata. Only the owner may update, and capacity
// may not drop below the current confirmed count.
func (s *EventService) Update(ctx context.Context, id, callerID string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, errors.New(msg)
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != callerID {
		return nil, domain.ErrNotOwner
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.Capacity != nil {
		// Fast path only: the read counter may already be stale. The
		// repository re-evaluates the guard against the live counter inside
		// the update itself.
		if *req.Capacity < event.ConfirmedCount {
			return nil, domain.ErrCapacityBelowConfirmed
		}
		event.Capacity = *req.Capacity
	}
	event.UpdatedAt = time.Now().UTC()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event and all of its attendance records. Only the
// owner may delete.
func (s *EventService) Delete(ctx context.Context, id, callerID string) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.OwnerID != callerID {
		return domain.ErrNotOwner
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.Envelope{
		Type:    events.TypeEventDeleted,
		EventID: id,
		UserID:  callerID,
	})
	return nil
}
