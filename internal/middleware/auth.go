package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ridepool/internal/auth"
	"ridepool/internal/redis"
)

const bearerPrefix = "Bearer "

// Authenticate verifies the bearer token, rejects revoked tokens and stores
// the resolved principal in the request context.
func Authenticate(tokens *auth.TokenService, gate *auth.Gate, revocations redis.RevocationStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abortWithError(c, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := c.Request.Context()
		if revocations != nil {
			revoked, err := revocations.IsRevoked(ctx, claims.TokenID)
			if err != nil {
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("token revocation check failed")
				abortWithError(c, http.StatusInternalServerError, "internal server error")
				return
			}
			if revoked {
				abortWithError(c, http.StatusUnauthorized, "token has been revoked")
				return
			}
		}

		principal, err := gate.Resolve(ctx, claims)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				abortWithError(c, http.StatusUnauthorized, "authentication required")
				return
			}
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("resolve principal failed")
			abortWithError(c, http.StatusInternalServerError, "internal server error")
			return
		}

		c.Request = c.Request.WithContext(auth.WithPrincipal(ctx, principal))
		c.Next()
	}
}

// RequireCapability aborts the request unless the authenticated principal
// holds capability. It runs before any handler parses path parameters.
func RequireCapability(gate *auth.Gate, capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := auth.FromContext(c.Request.Context())

		switch err := gate.Authorize(principal, capability); {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrUnauthenticated):
			abortWithError(c, http.StatusUnauthorized, "authentication required")
		default:
			abortWithError(c, http.StatusForbidden, "admin access required")
		}
	}
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
