package dto

import (
	"strings"
	"time"

	"github.com/meetlite/meetlite/internal/domain"
)

// Capacity bounds accepted at creation and update time.
const (
	MinCapacity = 1
	MaxCapacity = 100000
)

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	Location    string    `json:"location" binding:"max=200"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
}

// Validate validates the CreateEventRequest
func (r *CreateEventRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.Title) == "" {
		return false, "Title is required"
	}
	if r.StartsAt.IsZero() {
		return false, "Start time is required"
	}
	if !r.StartsAt.After(time.Now()) {
		return false, "Start time must be in the future"
	}
	if r.Capacity < MinCapacity || r.Capacity > MaxCapacity {
		return false, "Capacity must be between 1 and 100000"
	}
	return true, ""
}

// UpdateEventRequest represents the request to update an event.
// Pointer fields distinguish "not sent" from zero values.
type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Location    *string    `json:"location" binding:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at"`
	Capacity    *int       `json:"capacity" binding:"omitempty,min=1"`
}

// Validate validates the UpdateEventRequest
func (r *UpdateEventRequest) Validate() (bool, string) {
	if r.Title == nil && r.Description == nil && r.Location == nil && r.StartsAt == nil && r.Capacity == nil {
		return false, "At least one field must be provided for update"
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return false, "Title must not be empty"
	}
	if r.StartsAt != nil && !r.StartsAt.After(time.Now()) {
		return false, "Start time must be in the future"
	}
	if r.Capacity != nil && (*r.Capacity < MinCapacity || *r.Capacity > MaxCapacity) {
		return false, "Capacity must be between 1 and 100000"
	}
	return true, ""
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartsAt       string `json:"starts_at"`
	Capacity       int    `json:"capacity"`
	ConfirmedCount int    `json:"confirmed_count"`
	Remaining      int    `json:"remaining"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// NewEventResponse converts a domain event
func NewEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		OwnerID:        e.OwnerID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		StartsAt:       e.StartsAt.Format(time.RFC3339),
		Capacity:       e.Capacity,
		ConfirmedCount: e.ConfirmedCount,
		Remaining:      e.Remaining(),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

// EventListResponse represents a page of events
type EventListResponse struct {
	Events []*EventResponse `json:"events"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ListEventsFilter represents pagination for listing events
type ListEventsFilter struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *ListEventsFilter) SetDefaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
