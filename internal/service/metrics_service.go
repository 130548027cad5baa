package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService exposes matching pipeline instrumentation on a dedicated
// Prometheus registry.
type MetricsService struct {
	registry *prometheus.Registry

	rankingDuration prometheus.Histogram
	rankingPool     prometheus.Histogram
	offersCreated   prometheus.Counter
	transitions     *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		rankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloodchain",
			Name:      "ranking_duration_seconds",
			Help:      "Wall time of one candidate ranking pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		rankingPool: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloodchain",
			Name:      "ranking_pool_size",
			Help:      "Donor pool size loaded per ranking pass.",
			Buckets:   []float64{5, 10, 25, 50, 100},
		}),
		offersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloodchain",
			Name:      "match_offers_created_total",
			Help:      "Match offers persisted in PENDING state.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloodchain",
			Name:      "match_transitions_total",
			Help:      "Match state transitions by outcome.",
		}, []string{"outcome"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloodchain",
			Name:      "settlements_total",
			Help:      "Donation settlement attempts by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloodchain",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloodchain",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.rankingDuration,
		m.rankingPool,
		m.offersCreated,
		m.transitions,
		m.settlements,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Snapshot flattens the current registry state into a plain map for the JSON
// metrics endpoint. Counters and gauges report their value; histograms report
// sample count and sum.
func (m *MetricsService) Snapshot() (map[string]interface{}, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(families))
	for _, family := range families {
		series := make([]map[string]interface{}, 0, len(family.GetMetric()))
		for _, metric := range family.GetMetric() {
			entry := map[string]interface{}{}
			for _, label := range metric.GetLabel() {
				entry[label.GetName()] = label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				entry["value"] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				entry["value"] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				entry["count"] = metric.GetHistogram().GetSampleCount()
				entry["sum"] = metric.GetHistogram().GetSampleSum()
			}
			series = append(series, entry)
		}
		out[family.GetName()] = series
	}
	return out, nil
}

// ObserveRanking records one ranking pass.
func (m *MetricsService) ObserveRanking(duration time.Duration, poolSize, offers int) {
	m.rankingDuration.Observe(duration.Seconds())
	m.rankingPool.Observe(float64(poolSize))
	m.offersCreated.Add(float64(offers))
}

// CountTransition records a match transition outcome (accepted, rejected,
// expired, conflict).
func (m *MetricsService) CountTransition(outcome string) {
	m.transitions.WithLabelValues(outcome).Inc()
}

// CountSettlement records a settlement attempt result (success, failure).
func (m *MetricsService) CountSettlement(result string) {
	m.settlements.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
