package logger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/b2bconnect/commerce-backend/services/common/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDPropagatesToLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = prev }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.RequestID())
	r.GET("/", func(c *gin.Context) {
		logger.Info(c.Request.Context(), "handled")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-123", w.Header().Get("X-Request-ID"))
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, "rid-123", logs.All()[0].ContextMap()["request_id"])
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnknownRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = prev }()

	logger.Warn(context.Background(), "no request")
	assert.Equal(t, "unknown", logs.All()[0].ContextMap()["request_id"])
}
