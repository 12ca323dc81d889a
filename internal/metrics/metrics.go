// Package metrics holds the Prometheus instruments of the service.
//
// A Tracker is constructed once in main and handed to the components that
// record into it; nothing here is a package-level global.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opensails"

// Tracker records request and bid lifecycle metrics into its own registry.
type Tracker struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	bidsPlaced          prometheus.Counter
	bidsAccepted        prometheus.Counter
	bidsRejected        *prometheus.CounterVec
	acceptanceConflicts prometheus.Counter
	invalidationErrors  prometheus.Counter
}

// New creates a Tracker with a fresh registry.
// withRuntime adds the Go runtime and process collectors.
func New(withRuntime bool) *Tracker {
	t := &Tracker{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "placed_total",
			Help:      "Bids created.",
		}),
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "accepted_total",
			Help:      "Bids accepted by a committed acceptance transaction.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "rejected_total",
			Help:      "Bids rejected, by cause.",
		}, []string{"cause"}), // "acceptance" | "owner"
		acceptanceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "acceptance_conflicts_total",
			Help:      "Acceptance attempts rolled back because the bid or collection was already resolved.",
		}),
		invalidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidation_failures_total",
			Help:      "Cache keys that could not be invalidated.",
		}),
	}

	if withRuntime {
		t.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	t.registry.MustRegister(
		t.requestDuration,
		t.requestTotal,
		t.bidsPlaced,
		t.bidsAccepted,
		t.bidsRejected,
		t.acceptanceConflicts,
		t.invalidationErrors,
	)
	return t
}

// Registry exposes the underlying registry, mainly for tests.
func (t *Tracker) Registry() *prometheus.Registry {
	return t.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (t *Tracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}

// Middleware records duration and count of every request by route template.
func (t *Tracker) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": strconv.Itoa(status),
			}
			t.requestDuration.With(labels).Observe(time.Since(start).Seconds())
			t.requestTotal.With(labels).Inc()
			return err
		}
	}
}

// BidPlaced counts a created bid.
func (t *Tracker) BidPlaced() {
	if t == nil {
		return
	}
	t.bidsPlaced.Inc()
}

// BidAccepted counts a committed acceptance and the sibling bids it rejected.
func (t *Tracker) BidAccepted(rejected int) {
	if t == nil {
		return
	}
	t.bidsAccepted.Inc()
	t.bidsRejected.WithLabelValues("acceptance").Add(float64(rejected))
}

// BidRejectedByOwner counts a single bid declined by the collection owner.
func (t *Tracker) BidRejectedByOwner() {
	if t == nil {
		return
	}
	t.bidsRejected.WithLabelValues("owner").Inc()
}

// AcceptanceConflict counts a rolled back acceptance.
func (t *Tracker) AcceptanceConflict() {
	if t == nil {
		return
	}
	t.acceptanceConflicts.Inc()
}

// InvalidationFailed counts cache keys that could not be removed.
func (t *Tracker) InvalidationFailed(keys int) {
	if t == nil {
		return
	}
	t.invalidationErrors.Add(float64(keys))
}
