package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/internal/dto"
	"github.com/meetlite/meetlite/internal/service"
	"github.com/meetlite/meetlite/pkg/middleware"
	"github.com/meetlite/meetlite/pkg/response"
)

// RSVPHandler handles RSVP-related HTTP requests
type RSVPHandler struct {
	rsvpService *service.RSVPService
}

// NewRSVPHandler creates a new RSVPHandler
func NewRSVPHandler(rsvpService *service.RSVPService) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService}
}

// Join handles POST /events/:id/rsvp
func (h *RSVPHandler) Join(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	snap, err := h.rsvpService.Join(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(
		dto.NewRSVPResponse(eventID, domain.AttendanceStatusActive, snap)))
}

// Leave handles DELETE /events/:id/rsvp
func (h *RSVPHandler) Leave(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	snap, err := h.rsvpService.Leave(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(
		dto.NewRSVPResponse(eventID, domain.AttendanceStatusCancelled, snap)))
}

// Status handles GET /events/:id/rsvp
func (h *RSVPHandler) Status(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	status, err := h.rsvpService.Status(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(&dto.RSVPStatusResponse{
		EventID: eventID,
		Status:  status,
		Active:  status == domain.AttendanceStatusActive,
	}))
}

// Roster handles GET /events/:id/attendees - owner only
func (h *RSVPHandler) Roster(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	roster, err := h.rsvpService.Roster(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	attendees := make([]*dto.AttendeeResponse, len(roster))
	for i, entry := range roster {
		attendees[i] = dto.NewAttendeeResponse(entry)
	}
	c.JSON(http.StatusOK, response.Success(&dto.RosterResponse{
		EventID:   eventID,
		Attendees: attendees,
		Count:     len(attendees),
	}))
}

// MyRSVPs handles GET /me/rsvps - the caller's active attendances on
// future events
func (h *RSVPHandler) MyRSVPs(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	eventList, err := h.rsvpService.MyAttendances(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	eventResponses := make([]*dto.EventResponse, len(eventList))
	for i, event := range eventList {
		eventResponses[i] = dto.NewEventResponse(event)
	}
	c.JSON(http.StatusOK, response.Success(&dto.MyRSVPsResponse{
		Events: eventResponses,
		Count:  len(eventResponses),
	}))
}
