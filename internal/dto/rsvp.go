package dto

import (
	"time"

	"github.com/meetlite/meetlite/internal/domain"
)

// RSVPResponse is returned by join and leave on commit: the caller's new
// status plus the post-operation capacity snapshot.
type RSVPResponse struct {
	EventID        string `json:"event_id"`
	Status         string `json:"status"`
	ConfirmedCount int    `json:"confirmed_count"`
	Capacity       int    `json:"capacity"`
	Remaining      int    `json:"remaining"`
}

// NewRSVPResponse builds a commit response from a capacity snapshot
func NewRSVPResponse(eventID, status string, snap domain.CapacitySnapshot) *RSVPResponse {
	return &RSVPResponse{
		EventID:        eventID,
		Status:         status,
		ConfirmedCount: snap.ConfirmedCount,
		Capacity:       snap.Capacity,
		Remaining:      snap.Capacity - snap.ConfirmedCount,
	}
}

// RSVPStatusResponse is the caller's standing for one event
type RSVPStatusResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
	Active  bool   `json:"active"`
}

// AttendeeResponse is one entry on an event's roster
type AttendeeResponse struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	JoinedAt string `json:"joined_at"`
}

// NewAttendeeResponse converts a roster entry
func NewAttendeeResponse(e *domain.RosterEntry) *AttendeeResponse {
	return &AttendeeResponse{
		UserID:   e.UserID,
		Name:     e.Name,
		JoinedAt: e.JoinedAt.Format(time.RFC3339),
	}
}

// RosterResponse is an event's attendee list
type RosterResponse struct {
	EventID   string              `json:"event_id"`
	Attendees []*AttendeeResponse `json:"attendees"`
	Count     int                 `json:"count"`
}

// MyRSVPsResponse lists the caller's active attendances for future events
type MyRSVPsResponse struct {
	Events []*EventResponse `json:"events"`
	Count  int              `json:"count"`
}
