package backend

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idrecon",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Total number of identity backend calls broken down by endpoint and result.",
	}, []string{"endpoint", "result"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "idrecon",
		Subsystem: "backend",
		Name:      "latency_seconds",
		Help:      "Latency distribution for identity backend calls.",
		Buckets: []float64{
			0.005, 0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"endpoint", "result"})
)

func observe(endpoint string, start time.Time, errp *error) {
	result := resultLabel(*errp)
	backendRequests.WithLabelValues(endpoint, result).Inc()
	backendLatency.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	var (
		apiErr *APIError
		netErr *NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &netErr):
		return "network_error"
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return "server_error"
	case errors.As(err, &apiErr):
		return "client_error"
	default:
		return "decode_error"
	}
}
