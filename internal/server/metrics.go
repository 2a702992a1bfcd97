package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bhupeshcoding/codecoach/models"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecoach_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codecoach_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// timingMiddleware records per-request latency and status, both to the
// metrics registry and the request log. The routed path keeps label
// cardinality bounded.
func timingMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			req := c.Request()
			path := c.Path()
			if path == "" {
				path = req.URL.Path
			}
			// The error handler has not run yet, so map known error types
			// to the status they will be rendered with.
			status := c.Response().Status
			var he *echo.HTTPError
			var rle *models.RateLimitError
			switch {
			case err == nil:
			case errors.As(err, &he):
				status = he.Code
			case errors.As(err, &rle):
				status = http.StatusTooManyRequests
			default:
				status = http.StatusInternalServerError
			}

			httpRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(req.Method, path).Observe(elapsed.Seconds())
			logger.Printf("%s %s %d %s", req.Method, req.URL.Path, status, elapsed)
			return err
		}
	}
}
