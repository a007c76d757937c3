package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ridepool/internal/app"
	"ridepool/internal/auth"
	"ridepool/internal/domain"
	"ridepool/internal/handler"
	"ridepool/internal/service"
	"ridepool/internal/tests"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router      *gin.Engine
	store       *tests.MemStore
	tokens      *auth.TokenService
	revocations *tests.MockRevocationStore
	responses   *tests.MockResponseStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := tests.NewMemStore()
	cache := tests.NewMockStatsCache()
	revocations := tests.NewMockRevocationStore()
	responses := tests.NewMockResponseStore()
	tokens := auth.NewTokenService("router-test-secret", time.Hour)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	gate := auth.NewGate(store.Users())

	stats := service.NewStatsService(store.Users(), store.Rides(), store.Ratings(), cache)
	adminHandler := handler.NewAdminHandler(
		service.NewModerationService(store, cache),
		service.NewRoleService(store),
		stats,
		service.NewDashboardService(store.Users(), store.Rides(), store.Ratings(), store.Messages(), store.Audit()),
	)
	accountHandler := handler.NewAccountHandler(
		service.NewAccountService(store.Users(), hasher, tokens, revocations, false),
		stats,
	)

	router := app.NewRouter(app.RouterDeps{
		AdminHandler:   adminHandler,
		AccountHandler: accountHandler,
		Tokens:         tokens,
		Gate:           gate,
		Revocations:    revocations,
		Responses:      responses,
	})

	return &testServer{
		router:      router,
		store:       store,
		tokens:      tokens,
		revocations: revocations,
		responses:   responses,
	}
}

func (s *testServer) user(t *testing.T, name string, role domain.Role) (*domain.User, string) {
	t.Helper()
	u := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    name,
		LastName:     "Test",
		Email:        name + "@example.com",
		PasswordHash: "$2a$04$not.a.real.hash",
		Role:         role,
		CreatedAt:    time.Now(),
	}
	s.store.AddUser(u)

	token, _, err := s.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ──────────────────────────────────────────────
// AUTHORIZATION GATE
// ──────────────────────────────────────────────

func TestAdminRoutes_RequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/admin/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes_NonAdminForbiddenBeforeIDValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice", domain.RoleUser)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/users"},
		{http.MethodDelete, "/v1/admin/users/not-a-uuid"},
		{http.MethodPut, "/v1/admin/users/not-a-uuid/make-admin"},
		{http.MethodDelete, "/v1/admin/rides/not-a-uuid"},
		{http.MethodDelete, "/v1/admin/ratings/not-a-uuid"},
		{http.MethodDelete, "/v1/admin/messages/not-a-uuid"},
		{http.MethodGet, "/v1/admin/stats"},
	}
	for _, r := range routes {
		w := s.do(r.method, r.path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", r.method, r.path)
	}
}

func TestAdminRoutes_DeletedAccountTokenRejected(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, aliceToken := s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/users/profile", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes_DemotedAdminLosesAccessImmediately(t *testing.T) {
	s := newTestServer(t)
	root, rootToken := s.user(t, "root", domain.RoleAdmin)
	_, otherToken := s.user(t, "other", domain.RoleAdmin)

	w := s.do(http.MethodPut, "/v1/admin/users/"+root.ID+"/remove-admin", otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/admin/users", rootToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ──────────────────────────────────────────────
// USER DELETION
// ──────────────────────────────────────────────

func TestDeleteUserRoute_StatusCodes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	other, _ := s.user(t, "other", domain.RoleAdmin)
	alice, _ := s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodDelete, "/v1/admin/users/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/v1/admin/users/"+uuid.New().String(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/v1/admin/users/"+other.ID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, s.store.Snapshot().Users, other.ID)

	w = s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User and all associated data deleted successfully", decode[handler.MessageResponse](t, w).Message)
	assert.NotContains(t, s.store.Snapshot().Users, alice.ID)
}

func TestDeleteUserRoute_InternalErrorIsGeneric(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, _ := s.user(t, "alice", domain.RoleUser)
	s.store.DeleteByCreatorError = errors.New("pq: connection refused on 10.0.0.5")

	w := s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode[handler.ErrorResponse](t, w).Error)
	assert.Contains(t, s.store.Snapshot().Users, alice.ID)
}

func TestDeleteUserRoute_IdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, _ := s.user(t, "alice", domain.RoleUser)

	first := s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, first.Code)

	second := s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Len(t, s.store.Snapshot().Audit, 1)

	third := s.do(http.MethodDelete, "/v1/admin/users/"+alice.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, third.Code)
}

// ──────────────────────────────────────────────
// ROLES, LISTINGS, STATS
// ──────────────────────────────────────────────

func TestRoleRoutes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, _ := s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodPut, "/v1/admin/users/"+alice.ID+"/make-admin", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	resp := decode[handler.RoleChangeResponse](t, w)
	assert.Equal(t, "admin", resp.User.Role)

	w = s.do(http.MethodPut, "/v1/admin/users/"+alice.ID+"/make-admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPut, "/v1/admin/users/"+uuid.New().String()+"/remove-admin", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/v1/admin/users/xyz/remove-admin", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsersRoute_OmitsPasswordHash(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodGet, "/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "not.a.real.hash")
	assert.Len(t, decode[[]handler.UserResponse](t, w), 2)
}

func TestSearchUsersRoute(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodGet, "/v1/admin/users/search?query=ali", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.UserResponse](t, w), 1)

	w = s.do(http.MethodGet, "/v1/admin/users/search", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	admin, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, aliceToken := s.user(t, "alice", domain.RoleUser)
	s.store.AddRating(&domain.Rating{ID: uuid.New().String(), RaterID: admin.ID, RatedID: alice.ID, Score: 4})

	w := s.do(http.MethodGet, "/v1/admin/users/"+alice.ID+"/profile", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[handler.ProfileResponse](t, w)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, 4.0, profile.AverageRating)
	assert.Equal(t, 1, profile.TotalRatings)

	w = s.do(http.MethodGet, "/v1/users/profile", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, profile, decode[handler.ProfileResponse](t, w))

	w = s.do(http.MethodGet, "/v1/admin/profile", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, admin.ID, decode[handler.ProfileResponse](t, w).ID)
}

func TestTotalsRoute(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	s.user(t, "alice", domain.RoleUser)

	w := s.do(http.MethodGet, "/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode[handler.TotalsResponse](t, w)
	assert.Equal(t, 2, totals.TotalUsers)
	assert.Equal(t, 1, totals.TotalAdmins)
}

func TestAuditRoute(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	alice, _ := s.user(t, "alice", domain.RoleUser)

	s.do(http.MethodPut, "/v1/admin/users/"+alice.ID+"/make-admin", adminToken, nil)

	w := s.do(http.MethodGet, "/v1/admin/audit?limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]handler.AuditEventResponse](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "user.role_changed", events[0].Action)

	w = s.do(http.MethodGet, "/v1/admin/audit?limit=ten", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ──────────────────────────────────────────────
// ACCOUNTS
// ──────────────────────────────────────────────

func TestAccountRoutes_RegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{
		"first_name": "Alice",
		"last_name":  "Martin",
		"email":      "alice@example.com",
		"password":   "secret123",
	}

	w := s.do(http.MethodPost, "/v1/users/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[handler.AuthResponse](t, w)
	assert.Equal(t, "user", registered.User.Role)

	w = s.do(http.MethodPost, "/v1/users/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[handler.AuthResponse](t, w).Token

	w = s.do(http.MethodPost, "/v1/users/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/users/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountRoutes_RegisterIgnoresIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	register := func(first, email string) *httptest.ResponseRecorder {
		return s.do(http.MethodPost, "/v1/users/register", "", map[string]string{
			"first_name": first,
			"email":      email,
			"password":   "secret123",
		}, "Idempotency-Key", "shared")
	}

	w := register("Alice", "alice@example.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alice := decode[handler.AuthResponse](t, w)

	w = register("Mallory", "mallory@example.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	mallory := decode[handler.AuthResponse](t, w)
	assert.Equal(t, "mallory@example.com", mallory.User.Email)
	assert.NotEqual(t, alice.Token, mallory.Token)
	assert.Zero(t, s.responses.Len())

	w = s.do(http.MethodGet, "/v1/users/profile", mallory.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mallory@example.com", decode[handler.ProfileResponse](t, w).Email)

	w = register("Alice", "alice@example.com")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccountRoutes_RegisterValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/users/register", "", map[string]string{"email": "bad", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountRoutes_RevocationCheckFailure(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice", domain.RoleUser)
	s.revocations.IsRevokedError = errors.New("redis down")

	w := s.do(http.MethodGet, "/v1/users/profile", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodOptions, "/v1/admin/users", "", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
