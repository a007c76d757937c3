package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ridepool/internal/auth"
	"ridepool/internal/repository"
	"ridepool/internal/service"
)

const internalErrorMessage = "internal server error"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(code, ErrorResponse{Error: internalErrorMessage})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrRatingNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidRatingID),
		errors.Is(err, service.ErrInvalidMessageID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrEmptySearchQuery),
		errors.Is(err, service.ErrInvalidRegistration):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, service.ErrAdminProtected):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrDuplicateEmail):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// principal returns the authenticated caller, writing a 401 when absent.
func principal(c *gin.Context) (*auth.Principal, bool) {
	p, ok := auth.FromContext(c.Request.Context())
	if !ok {
		respondError(c, auth.ErrUnauthenticated)
		return nil, false
	}
	return p, true
}
