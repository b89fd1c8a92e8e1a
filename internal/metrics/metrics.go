// Package metrics exposes the Prometheus metrics of a blog service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Peer call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records the metrics of one service. A nil *Collector is valid
// and records nothing, which keeps wiring optional in tests.
type Collector struct {
	service string

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	peerCalls       *prometheus.CounterVec
	degraded        *prometheus.CounterVec
	cascadeFailures prometheus.Counter
	verifyCache     *prometheus.CounterVec
}

// NewCollector creates a Collector for service and registers it on reg.
func NewCollector(reg prometheus.Registerer, service string) *Collector {
	c := &Collector{
		service: service,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"service", "method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "route"}),
		peerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_peer_calls_total",
			Help: "Calls made to peer services, by outcome.",
		}, []string{"peer", "operation", "outcome"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_enrichment_degraded_total",
			Help: "Reads served with placeholder values after a peer failure.",
		}, []string{"service", "field"}),
		cascadeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_cascade_delete_failures_total",
			Help: "Post deletions whose comment cascade failed.",
		}),
		verifyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_verify_cache_total",
			Help: "Token verification cache lookups, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.peerCalls,
		c.degraded,
		c.cascadeFailures,
		c.verifyCache,
	)

	return c
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(c.service, method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(c.service, route).Observe(elapsed.Seconds())
}

// RecordPeerCall records the outcome of a call to peer.
func (c *Collector) RecordPeerCall(peer, operation string, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.peerCalls.WithLabelValues(peer, operation, outcome).Inc()
}

// RecordDegraded records a read that substituted a placeholder for field.
func (c *Collector) RecordDegraded(field string) {
	if c == nil {
		return
	}
	c.degraded.WithLabelValues(c.service, field).Inc()
}

// RecordCascadeFailure records a failed comment cascade.
func (c *Collector) RecordCascadeFailure() {
	if c == nil {
		return
	}
	c.cascadeFailures.Inc()
}

// RecordVerifyCache records a verification cache "hit" or "miss".
func (c *Collector) RecordVerifyCache(result string) {
	if c == nil {
		return
	}
	c.verifyCache.WithLabelValues(result).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
