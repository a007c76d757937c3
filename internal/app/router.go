package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridepool/internal/auth"
	"ridepool/internal/handler"
	"ridepool/internal/middleware"
	"ridepool/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AdminHandler   *handler.AdminHandler
	AccountHandler *handler.AccountHandler
	Tokens         *auth.TokenService
	Gate           *auth.Gate
	Revocations    redis.RevocationStoreInterface
	Responses      redis.ResponseStoreInterface
	AllowedOrigins []string
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authenticate := middleware.Authenticate(deps.Tokens, deps.Gate, deps.Revocations)
	idempotent := middleware.IdempotencyMiddleware(deps.Responses)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Account routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.AccountHandler.Register)
			users.POST("/login", deps.AccountHandler.Login)
			users.POST("/logout", authenticate, deps.AccountHandler.Logout)
			users.GET("/profile", authenticate, deps.AccountHandler.Profile)
		}

		// Admin routes. The capability check runs before any handler parses an id.
		admin := v1.Group("/admin")
		admin.Use(authenticate, middleware.RequireCapability(deps.Gate, auth.CapabilityAdmin), idempotent)
		{
			admin.GET("/profile", deps.AdminHandler.Profile)
			admin.GET("/stats", deps.AdminHandler.Totals)
			admin.GET("/audit", deps.AdminHandler.Audit)

			admin.GET("/users", deps.AdminHandler.ListUsers)
			admin.GET("/users/search", deps.AdminHandler.SearchUsers)
			admin.GET("/users/:id/profile", deps.AdminHandler.UserProfile)
			admin.DELETE("/users/:id", deps.AdminHandler.DeleteUser)
			admin.PUT("/users/:id/make-admin", deps.AdminHandler.MakeAdmin)
			admin.PUT("/users/:id/remove-admin", deps.AdminHandler.RemoveAdmin)

			admin.GET("/rides", deps.AdminHandler.ListRides)
			admin.DELETE("/rides/:id", deps.AdminHandler.DeleteRide)

			admin.GET("/ratings", deps.AdminHandler.ListRatings)
			admin.DELETE("/ratings/:id", deps.AdminHandler.DeleteRating)

			admin.GET("/messages", deps.AdminHandler.ListMessages)
			admin.DELETE("/messages/:id", deps.AdminHandler.DeleteMessage)
		}
	}

	return router
}
