package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetlite/meetlite/internal/dto"
	"github.com/meetlite/meetlite/internal/service"
	"github.com/meetlite/meetlite/pkg/middleware"
	"github.com/meetlite/meetlite/pkg/response"
)

// EventHandler handles event CRUD HTTP requests
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.NewEventResponse(event)))
}

// List handles GET /events - upcoming events, paginated
func (h *EventHandler) List(c *gin.Context) {
	var filter dto.ListEventsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	filter.SetDefaults()

	eventList, total, err := h.eventService.ListUpcoming(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}

	eventResponses := make([]*dto.EventResponse, len(eventList))
	for i, event := range eventList {
		eventResponses[i] = dto.NewEventResponse(event)
	}
	c.JSON(http.StatusOK, response.Paginated(&dto.EventListResponse{
		Events: eventResponses,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, filter.Offset/filter.Limit+1, filter.Limit, int64(total)))
}

// GetByID handles GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	event, err := h.eventService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// ListMine handles GET /me/events - events the caller owns
func (h *EventHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	eventList, err := h.eventService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	eventResponses := make([]*dto.EventResponse, len(eventList))
	for i, event := range eventList {
		eventResponses[i] = dto.NewEventResponse(event)
	}
	c.JSON(http.StatusOK, response.Success(eventResponses))
}

// Update handles PATCH /events/:id - owner only
func (h *EventHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// Delete handles DELETE /events/:id - owner only, cascades to attendances
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"deleted": true}))
}
