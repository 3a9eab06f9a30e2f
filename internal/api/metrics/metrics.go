// Package metrics defines and registers all custom Prometheus metrics for the
// storefront API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the router at GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Catalog metrics ──────────────────────────────────────────────────────────

// CatalogCacheTotal counts unsearched product list lookups.
// Label:
//   - result: "hit" (served from cache), "miss" (reloaded from the store) or
//     "error" (cache backend failed, served from the store)
var CatalogCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_total",
		Help:      "Total number of catalog cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// CatalogInvalidationsTotal counts cache invalidations triggered by mutations.
// Label:
//   - op: "create", "update" or "delete"
var CatalogInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_invalidations_total",
		Help:      "Total number of catalog cache invalidations, by mutating operation.",
	},
	[]string{"op"},
)

// ── Cart metrics ─────────────────────────────────────────────────────────────

// CartAddsTotal counts add-to-cart attempts.
// Label:
//   - outcome: "created", "incremented", "insufficient_stock", "not_found",
//     "invalid" or "error"
var CartAddsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_adds_total",
		Help:      "Total number of add-to-cart attempts, by outcome.",
	},
	[]string{"outcome"},
)

// CartUpsertRetriesTotal counts first inserts that lost the (user, product)
// unique-key race and were retried as increments.
var CartUpsertRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_upsert_retries_total",
		Help:      "Total number of add-to-cart inserts retried after a unique-key conflict.",
	},
)

// ── Store metrics ────────────────────────────────────────────────────────────

// StoreCheckpointsTotal counts WAL checkpoints.
// Labels:
//   - mode: "TRUNCATE" (periodic) or "FULL" (shutdown)
//   - result: "ok" or "error"
var StoreCheckpointsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_checkpoints_total",
		Help:      "Total number of SQLite WAL checkpoints, by mode and result.",
	},
	[]string{"mode", "result"},
)

// ── HTTP metrics ─────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/api/cart/:id")
//   - code: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status code.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "code"},
)

// Middleware records HTTPRequestDuration for every request. Errors returned by
// downstream handlers are resolved through the echo error handler first so the
// recorded status code is the one sent to the client.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
