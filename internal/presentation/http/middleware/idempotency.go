package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/repository"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/dto/response"
	log "github.com/sirupsen/logrus"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired rejects POST requests without an Idempotency-Key and
// replays the stored response of a key the caller already used.
// The key is reserved before the handler runs, so a concurrent duplicate is
// rejected with 409 instead of running twice. Only 2xx responses are kept;
// any other outcome releases the key so the request can be retried.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = IdempotencyKeyTTL
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			response.BadRequest(c, "Idempotency-Key header is too long")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		subject := callerKey(c)
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		existing, err := config.Repo.GetByKey(ctx, idempotencyKey, subject)
		if err != nil {
			response.InternalServerError(c, "Failed to check idempotency key")
			c.Abort()
			return
		}

		if existing != nil && existing.IsExpired() {
			// the expired row still holds the unique (key, subject) pair
			if err := config.Repo.DeleteExpired(ctx); err != nil {
				log.WithError(err).Warn("failed to purge expired idempotency keys")
			}
			existing = nil
		}

		if existing != nil {
			switch {
			case existing.Endpoint != endpoint:
				response.ErrorWithCode(c, http.StatusConflict, "Idempotency-Key was already used for a different request")
			case existing.IsPending():
				response.ErrorWithCode(c, http.StatusConflict, "A request with this Idempotency-Key is already in progress")
			default:
				c.Header("X-Idempotency-Replayed", "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			}
			c.Abort()
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:       idempotencyKey,
			Subject:   subject,
			Endpoint:  endpoint,
			ExpiresAt: time.Now().Add(ttl),
		}
		if err := config.Repo.Reserve(ctx, ikey); err != nil {
			// another request inserted the pair between the lookup and here
			log.WithError(err).WithField("endpoint", endpoint).Debug("idempotency key reservation lost")
			response.ErrorWithCode(c, http.StatusConflict, "A request with this Idempotency-Key is already in progress")
			c.Abort()
			return
		}

		storeCtx := context.WithoutCancel(ctx)
		completed := false
		// also runs when the handler panics, so the key does not stay pending
		defer func() {
			if completed {
				return
			}
			if err := config.Repo.Release(storeCtx, idempotencyKey, subject); err != nil {
				log.WithError(err).WithField("endpoint", endpoint).Warn("failed to release idempotency key")
			}
		}()

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		completed = true
		ikey.ResponseCode = status
		ikey.ResponseBody = blw.body.String()
		if err := config.Repo.Complete(storeCtx, ikey); err != nil {
			log.WithError(err).WithField("endpoint", endpoint).Warn("failed to store idempotency key")
		}
	}
}
