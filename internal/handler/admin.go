package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridepool/internal/service"
)

// AdminHandler handles HTTP requests of the admin dashboard.
// Every route is mounted behind authentication and the admin capability check.
type AdminHandler struct {
	moderation *service.ModerationService
	roles      *service.RoleService
	stats      *service.StatsService
	dashboard  *service.DashboardService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	moderation *service.ModerationService,
	roles *service.RoleService,
	stats *service.StatsService,
	dashboard *service.DashboardService,
) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		roles:      roles,
		stats:      stats,
		dashboard:  dashboard,
	}
}

// RoleChangeResponse is the HTTP response for a role change.
type RoleChangeResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ListUsers handles GET /v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.dashboard.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toUserResponses(users))
}

// SearchUsers handles GET /v1/admin/users/search?query=
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	users, err := h.dashboard.SearchUsers(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toUserResponses(users))
}

// DeleteUser handles DELETE /v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	if _, err := h.moderation.DeleteUserCascade(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, MessageResponse{Message: "User and all associated data deleted successfully"})
}

// MakeAdmin handles PUT /v1/admin/users/:id/make-admin
func (h *AdminHandler) MakeAdmin(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.roles.Promote(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, RoleChangeResponse{
		Message: "User promoted to admin successfully",
		User:    toUserResponse(user),
	})
}

// RemoveAdmin handles PUT /v1/admin/users/:id/remove-admin
func (h *AdminHandler) RemoveAdmin(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.roles.Demote(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, RoleChangeResponse{
		Message: "Admin privileges removed",
		User:    toUserResponse(user),
	})
}

// UserProfile handles GET /v1/admin/users/:id/profile
func (h *AdminHandler) UserProfile(c *gin.Context) {
	profile, err := h.stats.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toProfileResponse(profile))
}

// Profile handles GET /v1/admin/profile
func (h *AdminHandler) Profile(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	profile, err := h.stats.Profile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toProfileResponse(profile))
}

// ListRides handles GET /v1/admin/rides
func (h *AdminHandler) ListRides(c *gin.Context) {
	rides, err := h.dashboard.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// DeleteRide handles DELETE /v1/admin/rides/:id
func (h *AdminHandler) DeleteRide(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	if err := h.moderation.DeleteRide(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, MessageResponse{Message: "Ride deleted successfully"})
}

// ListRatings handles GET /v1/admin/ratings
func (h *AdminHandler) ListRatings(c *gin.Context) {
	ratings, err := h.dashboard.ListRatings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRatingResponses(ratings))
}

// DeleteRating handles DELETE /v1/admin/ratings/:id
func (h *AdminHandler) DeleteRating(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	if err := h.moderation.DeleteRating(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, MessageResponse{Message: "Rating deleted successfully"})
}

// ListMessages handles GET /v1/admin/messages
func (h *AdminHandler) ListMessages(c *gin.Context) {
	messages, err := h.dashboard.ListMessages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toMessageResponses(messages))
}

// DeleteMessage handles DELETE /v1/admin/messages/:id
func (h *AdminHandler) DeleteMessage(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	if err := h.moderation.DeleteMessage(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, MessageResponse{Message: "Message deleted successfully"})
}

// Totals handles GET /v1/admin/stats
func (h *AdminHandler) Totals(c *gin.Context) {
	totals, err := h.dashboard.Totals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, TotalsResponse{
		TotalUsers:    totals.TotalUsers,
		TotalAdmins:   totals.TotalAdmins,
		TotalRides:    totals.TotalRides,
		OpenRides:     totals.OpenRides,
		TotalRatings:  totals.TotalRatings,
		TotalMessages: totals.TotalMessages,
	})
}

// Audit handles GET /v1/admin/audit?limit=
func (h *AdminHandler) Audit(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a number"})
		return
	}

	events, err := h.dashboard.ListAudit(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAuditResponses(events))
}
