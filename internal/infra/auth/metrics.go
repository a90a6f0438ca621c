package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	tokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atrium_auth_tokens_issued_total",
			Help: "Total number of signed tokens by kind",
		},
		[]string{"kind"},
	)

	tokenValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atrium_auth_token_validation_failures_total",
			Help: "Rejected tokens by kind and internal reason",
		},
		[]string{"kind", "reason"},
	)

	passwordHashDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atrium_auth_password_hash_seconds",
			Help:    "Duration of argon2id hash and verify calls",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
		[]string{"operation"},
	)
)

func observeHash(operation string, start time.Time) {
	passwordHashDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
