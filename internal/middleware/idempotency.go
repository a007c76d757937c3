package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ridepool/internal/auth"
	"ridepool/internal/redis"
)

const idempotencyHeader = "Idempotency-Key"

// bodyRecorder wraps gin.ResponseWriter to capture the response body.
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a mutating request
// that repeats an Idempotency-Key. Keys are scoped to the caller, method and
// path, so only authenticated requests take part. Anonymous requests,
// requests without the header, and store failures pass through.
func IdempotencyMiddleware(store redis.ResponseStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		p, ok := auth.FromContext(c.Request.Context())
		if key == "" || !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scoped := p.UserID + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		stored, err := store.GetResponse(ctx, scoped)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency lookup failed")
			c.Next()
			return
		}

		if stored != nil {
			for k, values := range stored.Headers {
				for _, v := range values {
					c.Header(k, v)
				}
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.StatusCode, "application/json", stored.Body)
			c.Abort()
			return
		}

		w := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Server errors are not replayed so the client can retry.
		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusInternalServerError {
			return
		}

		headers := make(http.Header)
		if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
			headers.Set("Content-Type", ct)
		}
		err = store.SaveResponse(ctx, scoped, &redis.StoredResponse{
			StatusCode: status,
			Body:       w.body.Bytes(),
			Headers:    headers,
		})
		if err != nil {
			log.Warn().Err(err).Msg("idempotency save failed")
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
