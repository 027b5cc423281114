package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	aiTokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_ai_tokens_used_total",
		Help: "Tokens recorded against user quotas, by operation.",
	}, []string{"operation"})
)

func (s *Server) Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func observeTokens(operation string, tokens int64) {
	if tokens > 0 {
		aiTokensUsed.WithLabelValues(operation).Add(float64(tokens))
	}
}
