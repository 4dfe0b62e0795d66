package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveTransaction(t *testing.T) {
	c := metrics.New("commerce-service", nil)

	c.ObserveTransaction("checkout", "committed")
	c.ObserveTransaction("checkout", "committed")
	c.ObserveTransaction("reject", "rejected")

	expected := `
# HELP commerce_transactions_total Order transactions by flow and outcome
# TYPE commerce_transactions_total counter
commerce_transactions_total{flow="checkout",outcome="committed"} 2
commerce_transactions_total{flow="reject",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "commerce_transactions_total"))
}

func TestCollector_MiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := metrics.New("commerce-service", nil)

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/orders/:orderId", func(ctx *gin.Context) { ctx.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/orders/:orderId",service="commerce-service",status="404"} 2`)
	assert.Contains(t, body, `http_status_category_total{category="4xx",service="commerce-service"} 2`)
	assert.Contains(t, body, "go_goroutines")
}
