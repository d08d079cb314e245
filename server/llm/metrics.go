package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_judge_attempts_total",
			Help: "Judge call attempts by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rps_judge_attempt_duration_seconds",
			Help:    "Duration of single judge call attempts.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	backoffSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_judge_backoff_seconds_total",
			Help: "Time spent waiting between judge attempts.",
		},
		[]string{"reason"},
	)
	discoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_judge_discovery_total",
			Help: "Endpoint discovery probe results.",
		},
		[]string{"result"},
	)
)
