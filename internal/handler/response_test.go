package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/auth"
	"ridepool/internal/repository"
	"ridepool/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrRideNotFound, http.StatusNotFound},
		{service.ErrRatingNotFound, http.StatusNotFound},
		{service.ErrMessageNotFound, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrInvalidUserID, http.StatusBadRequest},
		{service.ErrInvalidRideID, http.StatusBadRequest},
		{service.ErrInvalidRole, http.StatusBadRequest},
		{service.ErrEmptySearchQuery, http.StatusBadRequest},
		{service.ErrInvalidRegistration, http.StatusBadRequest},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrForbidden, http.StatusForbidden},
		{service.ErrAdminProtected, http.StatusForbidden},
		{service.ErrEmailTaken, http.StatusConflict},
		{repository.ErrDuplicateEmail, http.StatusConflict},
		{fmt.Errorf("delete user: %w", service.ErrAdminProtected), http.StatusForbidden},
		{errors.New("connection reset by peer"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestRespondError_HidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)

	respondError(c, errors.New("pq: password authentication failed for user \"ridepool\""))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, internalErrorMessage, body.Error)
	assert.Len(t, c.Errors, 1)
}

func TestRespondError_ExposesClientErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v1/admin/users/x", nil)

	respondError(c, service.ErrAdminProtected)

	require.Equal(t, http.StatusForbidden, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cannot delete admin users", body.Error)
}
