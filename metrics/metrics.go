package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const namespace = "pg_backend"

// HTTPMetrics holds the request metrics of the API server.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginFailures   prometheus.Counter
	RateLimited     prometheus.Counter
}

// NewHTTPMetrics initializes the request metrics and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_failures_total",
			Help:      "Total number of rejected admin logins.",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "rate_limited_total",
			Help:      "Total number of requests refused by the login rate limiter.",
		}),
	}
}

// Occupancy is a point-in-time view of the room pool.
type Occupancy struct {
	Guests    int
	FreeSlots int
	Rooms     int
}

// RegisterOccupancy registers gauges that read the pool through snapshot on
// every scrape. A failed snapshot reports -1.
func RegisterOccupancy(reg prometheus.Registerer, log *zap.Logger, snapshot func() (Occupancy, error)) {
	read := func(pick func(Occupancy) int) func() float64 {
		return func() float64 {
			o, err := snapshot()
			if err != nil {
				log.Warn("occupancy snapshot failed", zap.Error(err))
				return -1
			}
			return float64(pick(o))
		}
	}
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "free_slots",
		Help:      "Number of free beds across all rooms.",
	}, read(func(o Occupancy) int { return o.FreeSlots }))
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "total",
		Help:      "Number of rooms in the pool.",
	}, read(func(o Occupancy) int { return o.Rooms }))
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "guests",
		Name:      "total",
		Help:      "Number of current guests.",
	}, read(func(o Occupancy) int { return o.Guests }))
}
