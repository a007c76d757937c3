package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"ridepool/internal/auth"
)

// NewRelicAttributes tags the transaction started by nrgin with the
// authenticated caller and records handler errors on it.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		c.Next()

		if p, ok := auth.FromContext(c.Request.Context()); ok {
			txn.AddAttribute("user.id", p.UserID)
			txn.AddAttribute("user.role", string(p.Role))
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
