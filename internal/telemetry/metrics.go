package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CacheLookupsTotal counts cache reads by cache name, tier and result (hit, miss, expired, error).
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache, tier and result.",
	}, []string{"cache", "tier", "result"})

	// CacheWriteErrorsTotal counts swallowed durable-tier write failures.
	CacheWriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "cache_write_errors_total",
		Help:      "Durable cache tier write failures.",
	}, []string{"cache"})

	// UpstreamRequestsTotal counts weather provider calls by provider and outcome.
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "upstream_requests_total",
		Help:      "Weather provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})
)
