package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	awspkg "github.com/b2bconnect/commerce-backend/pkg/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry. Order transaction
// outcomes are also pushed to CloudWatch when a metrics client is enabled.
type Collector struct {
	serviceName string
	registry    *prometheus.Registry
	cloudwatch  *awspkg.MetricsClient

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	statusClass  *prometheus.CounterVec
	transactions *prometheus.CounterVec
}

// New builds a collector on a fresh registry, so tests can create as many
// as they like.
func New(serviceName string, cloudwatch *awspkg.MetricsClient) *Collector {
	c := &Collector{
		serviceName: serviceName,
		registry:    prometheus.NewRegistry(),
		cloudwatch:  cloudwatch,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commerce_transactions_total",
				Help: "Order transactions by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
	}
	c.registry.MustRegister(
		c.requests,
		c.duration,
		c.statusClass,
		c.transactions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func statusCategory(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	}
	return "other"
}

// Middleware records request count and latency by route template
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := ctx.Writer.Status()
		statusStr := strconv.Itoa(status)

		c.requests.WithLabelValues(c.serviceName, ctx.Request.Method, path, statusStr).Inc()
		c.duration.WithLabelValues(c.serviceName, ctx.Request.Method, path, statusStr).Observe(time.Since(start).Seconds())
		c.statusClass.WithLabelValues(c.serviceName, statusCategory(status)).Inc()
	}
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveTransaction counts one order transaction. Committed and failed
// outcomes are mirrored to CloudWatch.
func (c *Collector) ObserveTransaction(flow, outcome string) {
	c.transactions.WithLabelValues(flow, outcome).Inc()

	if !c.cloudwatch.IsEnabled() {
		return
	}
	name := awspkg.MetricOrdersCommitted
	switch outcome {
	case "failed":
		name = awspkg.MetricOrdersFailed
	case "rejected":
		name = awspkg.MetricDraftsRejected
	}
	dims := map[string]string{"Service": c.serviceName, "Flow": flow}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.cloudwatch.RecordCount(ctx, name, dims)
	}()
}
