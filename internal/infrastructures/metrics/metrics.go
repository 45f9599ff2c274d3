package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

const namespace = "stand_allocator"

// Metrics holds the allocator's collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	solvesTotal     *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	buildDuration   prometheus.Histogram
	cacheHits       prometheus.Counter
	modelCandidates prometheus.Gauge
	modelShadows    prometheus.Gauge
	modelNoOverlap  prometheus.Gauge

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		solvesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Allocation solves by outcome status.",
		}, []string{"status"}),
		solveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Time spent in the constraint engine.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"status"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_build_duration_seconds",
			Help:      "Time spent declaring the constraint model.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Results served from the solution cache.",
		}),
		modelCandidates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_candidates",
			Help:      "Feasible turn/stand pairs in the last solved model.",
		}),
		modelShadows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_shadows",
			Help:      "Adjacency shadow intervals in the last solved model.",
		}),
		modelNoOverlap: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_no_overlap_constraints",
			Help:      "No-overlap constraints in the last solved model.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "HTTP requests in flight.",
		}),
	}
}

// ObserveSolve records one allocation outcome.
func (m *Metrics) ObserveSolve(result models.Result) {
	status := result.Status.String()
	m.solvesTotal.WithLabelValues(status).Inc()
	if result.Stats.Cached {
		m.cacheHits.Inc()
		return
	}
	m.solveDuration.WithLabelValues(status).Observe(result.Stats.SolveDuration.Seconds())
	m.buildDuration.Observe(result.Stats.BuildDuration.Seconds())
	m.modelCandidates.Set(float64(result.Stats.Candidates))
	m.modelShadows.Set(float64(result.Stats.Shadows))
	m.modelNoOverlap.Set(float64(result.Stats.NoOverlap))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
