// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests.
	// Labels:
	//   - method: HTTP method
	//   - route: gin route pattern, e.g. "/api/recipes/:id"
	//   - status: response status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// RecipeListChanges counts favorite and shopping cart toggles.
	// Labels:
	//   - list: "favorites", "shopping_cart"
	//   - action: "add", "remove"
	RecipeListChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_list_changes_total",
			Help: "Total number of recipes added to or removed from user lists",
		},
		[]string{"list", "action"},
	)

	// SubscriptionChanges counts follow and unfollow operations.
	SubscriptionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_subscription_changes_total",
			Help: "Total number of subscriptions created or removed",
		},
		[]string{"action"},
	)

	// RecipesWritten counts recipe writes by operation ("create", "update", "delete").
	RecipesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_written_total",
			Help: "Total number of recipe create, update and delete operations",
		},
		[]string{"operation"},
	)

	// ShoppingListDownloads counts generated shopping lists.
	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of shopping lists generated",
		},
	)

	// LoginAttempts counts token logins by outcome ("success", "failure", "throttled").
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_login_attempts_total",
			Help: "Total number of token login attempts",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest records one handled request
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
