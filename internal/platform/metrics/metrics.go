package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	SharesCreated        prometheus.Counter
	SharesClosed         *prometheus.CounterVec
	OptIns               *prometheus.CounterVec
	OptInsClosed         *prometheus.CounterVec
	NearbyRequests       prometheus.Counter
	PositioningFailures  prometheus.Counter
	SweepDuration        prometheus.Histogram
	SweepRecords         *prometheus.CounterVec
	OutboxPublished      prometheus.Counter
	OutboxFailures       prometheus.Counter
	DisplayNameCache     *prometheus.CounterVec
	RateLimited          *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	ServiceCallDurations *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. A nil reg uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SharesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_location_shares_created_total",
			Help: "Total number of location shares created",
		}),
		SharesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_location_shares_closed_total",
			Help: "Total number of location shares closed, by reason",
		}, []string{"reason"}),
		OptIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_proximity_opt_ins_total",
			Help: "Total number of proximity opt-ins, by outcome",
		}, []string{"outcome"}),
		OptInsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_proximity_opt_ins_closed_total",
			Help: "Total number of proximity opt-ins closed, by reason",
		}, []string{"reason"}),
		NearbyRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_nearby_attendee_requests_total",
			Help: "Total number of nearby attendee listings served",
		}),
		PositioningFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_positioning_failures_total",
			Help: "Participants omitted from nearby listings because a lookup failed",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps",
			Buckets: durationBuckets,
		}),
		SweepRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_expiry_sweep_records_total",
			Help: "Records handled by the expiry sweep, by kind and outcome",
		}, []string{"kind", "outcome"}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_audit_outbox_published_total",
			Help: "Audit outbox rows relayed to Kafka",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "beacon_audit_outbox_failures_total",
			Help: "Audit outbox publish failures",
		}),
		DisplayNameCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_display_name_cache_total",
			Help: "Display name cache lookups, by result",
		}, []string{"result"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_rate_limited_requests_total",
			Help: "Requests rejected by the per-user rate limiter, by class",
		}, []string{"class"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: durationBuckets,
		}, []string{"method", "route", "status"}),
		ServiceCallDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_service_call_duration_seconds",
			Help:    "Duration of service operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementShareCreated() {
	m.SharesCreated.Inc()
}

func (m *Metrics) IncrementShareClosed(reason string) {
	m.SharesClosed.WithLabelValues(reason).Inc()
}

// IncrementOptIn records an opt-in call; outcome is created, reactivated or unchanged.
func (m *Metrics) IncrementOptIn(outcome string) {
	m.OptIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementOptInClosed(reason string) {
	m.OptInsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementNearbyRequest() {
	m.NearbyRequests.Inc()
}

func (m *Metrics) IncrementPositioningFailure() {
	m.PositioningFailures.Inc()
}

// ObserveSweep records one sweep's duration and per-kind outcomes.
func (m *Metrics) ObserveSweep(start time.Time, sharesExpired, optInsExpired, skipped, failed int) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
	m.SweepRecords.WithLabelValues("share", "expired").Add(float64(sharesExpired))
	m.SweepRecords.WithLabelValues("opt_in", "expired").Add(float64(optInsExpired))
	m.SweepRecords.WithLabelValues("any", "skipped").Add(float64(skipped))
	m.SweepRecords.WithLabelValues("any", "failed").Add(float64(failed))
}

func (m *Metrics) IncOutboxPublished(count int) {
	m.OutboxPublished.Add(float64(count))
}

func (m *Metrics) IncOutboxFailed() {
	m.OutboxFailures.Inc()
}

func (m *Metrics) IncDisplayNameCacheHit() {
	m.DisplayNameCache.WithLabelValues("hit").Inc()
}

func (m *Metrics) IncDisplayNameCacheMiss() {
	m.DisplayNameCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncRateLimited(class string) {
	m.RateLimited.WithLabelValues(class).Inc()
}

// ObserveHTTPRequest records one request's latency.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

// ObserveServiceCall records the duration of a service operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveServiceCall(operation string, start time.Time) {
	m.ServiceCallDurations.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
