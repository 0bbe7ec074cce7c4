// Package metrics exposes HTTP request metrics for Prometheus scraping.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrohire_http_requests_total",
			Help: "Number of HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrohire_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrohire_bookings_created_total",
			Help: "Number of bookings created.",
		},
	)

	paymentsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrohire_payments_settled_total",
			Help: "Number of payments settled by final status.",
		},
		[]string{"status"},
	)

	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrohire_notifications_dispatched_total",
			Help: "Number of notifications dispatched by outcome.",
		},
		[]string{"outcome"},
	)
)

// PrometheusMiddleware records request counts and latencies. The route
// template is used as the path label so IDs do not explode cardinality.
func PrometheusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			requestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func CountBookingCreated() {
	bookingsCreated.Inc()
}

func CountPaymentSettled(status string) {
	paymentsSettled.WithLabelValues(status).Inc()
}

func CountNotificationDispatched(outcome string) {
	notificationsDispatched.WithLabelValues(outcome).Inc()
}
