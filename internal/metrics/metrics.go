package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donationfeed_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donationfeed_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// FeedBuilds counts aggregations by role and where the announcements came from.
	FeedBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donationfeed_feed_builds_total",
			Help: "Number of feeds built, by viewer role and announcement source",
		},
		[]string{"role", "announcement_source"},
	)

	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donationfeed_gateway_requests_total",
			Help: "Requests to the donation server, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donationfeed_gateway_request_duration_seconds",
			Help:    "Latency of requests to the donation server",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CacheRecoveries counts local announcement cache reseeds after unreadable state.
	CacheRecoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donationfeed_announcement_cache_recoveries_total",
			Help: "Local announcement cache reseeds, by cause",
		},
		[]string{"cause"},
	)
)

// Init registers every collector with the default registry. Call once from main.
func Init() {
	prometheus.MustRegister(RequestCount, RequestDuration, FeedBuilds, GatewayRequests, GatewayDuration, CacheRecoveries)
}
