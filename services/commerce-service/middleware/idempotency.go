package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayHeader      = "Idempotent-Replay"
	IdempotencyTTL    = 24 * time.Hour
)

// IdempotencyStore persists the first successful response per key
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key. Requests without the header pass through. Keys are scoped
// to the caller and the route. Store failures never fail the request.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		scoped := c.GetString(BusinessContextKey) + ":" + c.FullPath() + ":" + key
		ctx := c.Request.Context()

		if cached, err := store.Get(ctx, scoped); err != nil {
			logger.Warn(ctx, "Idempotency lookup failed", zap.Error(err))
		} else if cached != "" {
			var resp storedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Header(ReplayHeader, "true")
				c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
				c.Abort()
				return
			}
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 || rec.body.Len() == 0 {
			return
		}
		payload, err := json.Marshal(storedResponse{Status: status, Body: rec.body.Bytes()})
		if err != nil {
			return
		}
		if _, err := store.Set(ctx, scoped, string(payload), IdempotencyTTL); err != nil {
			logger.Warn(ctx, "Idempotency store failed", zap.Error(err))
		}
	}
}
