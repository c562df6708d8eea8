package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetlite/meetlite/internal/domain"
	"github.com/meetlite/meetlite/pkg/logger"
	"github.com/meetlite/meetlite/pkg/response"
)

// sentinelCodes maps business rejections to their stable reason codes.
type sentinelCode struct {
	err     error
	code    string
	message string
}

var sentinelCodes = []sentinelCode{
	{domain.ErrEventNotFound, response.ErrCodeEventNotFound, "Event not found"},
	{domain.ErrEventFull, response.ErrCodeEventFull, "Event is at capacity"},
	{domain.ErrEventInPast, response.ErrCodeEventInPast, "Event has already started"},
	{domain.ErrAlreadyRSVPed, response.ErrCodeAlreadyRSVPed, "You are already attending this event"},
	{domain.ErrNotRSVPed, response.ErrCodeNotRSVPed, "You are not attending this event"},
	{domain.ErrNotOwner, response.ErrCodeNotOwner, "Only the event owner may do this"},
	{domain.ErrInconsistentState, response.ErrCodeInconsistentState, "RSVP state is inconsistent, the team has been notified"},
	{domain.ErrTransient, response.ErrCodeTransient, "Temporary failure, please retry"},
	{domain.ErrUserNotFound, response.ErrCodeNotFound, "User not found"},
	{domain.ErrEmailTaken, response.ErrCodeEmailTaken, "Email is already registered"},
	{domain.ErrInvalidCredentials, response.ErrCodeInvalidCredentials, "Invalid email or password"},
	{domain.ErrCapacityBelowConfirmed, response.ErrCodeConflict, "Capacity cannot drop below current confirmed count"},
}

// respondError translates a service error into the response envelope.
// Unknown errors are logged with their real cause and answered with a
// generic message; internal error text never reaches the client.
func respondError(c *gin.Context, err error) {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			c.JSON(response.GetHTTPStatus(sc.code), response.Error(sc.code, sc.message))
			return
		}
	}

	logger.Get().ErrorContext(c.Request.Context(), "unhandled service error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(response.GetHTTPStatus(response.ErrCodeInternalError), response.InternalError(""))
}
