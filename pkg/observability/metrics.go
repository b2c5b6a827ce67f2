package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oidtree"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	SnapshotsLoaded   *prometheus.CounterVec
	NodesAdded        *prometheus.CounterVec
	SelectionsCleared prometheus.Counter
	TreeNodes         prometheus.Gauge
	TreeVersion       prometheus.Gauge
	SnippetsRendered  *prometheus.CounterVec
	Suggestions       *prometheus.CounterVec
	SuggestDuration   prometheus.Histogram
	HTTPRequests      *prometheus.HistogramVec
	StoreOps          *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on a fresh registry,
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SnapshotsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_loaded_total",
			Help:      "Snapshots published from the store or the seed tree.",
		}, []string{"source"}),
		NodesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_added_total",
			Help:      "Nodes appended and persisted, by kind.",
		}, []string{"kind"}),
		SelectionsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_cleared_total",
			Help:      "Selections dropped because the node vanished on reload.",
		}),
		TreeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Number of nodes in the current tree.",
		}),
		TreeVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_version",
			Help:      "Version of the current snapshot.",
		}),
		SnippetsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snippets_rendered_total",
			Help:      "Snippets rendered, by format.",
		}, []string{"format"}),
		Suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Suggestion calls, by outcome.",
		}, []string{"outcome"}),
		SuggestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggest_duration_seconds",
			Help:      "Duration of suggestion calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		StoreOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Snapshot store latency by operation and outcome.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SnapshotsLoaded,
		m.NodesAdded,
		m.SelectionsCleared,
		m.TreeNodes,
		m.TreeVersion,
		m.SnippetsRendered,
		m.Suggestions,
		m.SuggestDuration,
		m.HTTPRequests,
		m.StoreOps,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSnapshotLoaded: func(_ context.Context, e *domain.SnapshotEvent) {
			source := "store"
			if e.Seeded {
				source = "seed"
			}
			m.SnapshotsLoaded.WithLabelValues(source).Inc()
			m.TreeNodes.Set(float64(e.Nodes))
			m.TreeVersion.Set(float64(e.Version))
		},
		OnNodeAdded: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesAdded.WithLabelValues(string(e.Kind)).Inc()
			m.TreeNodes.Inc()
			m.TreeVersion.Set(float64(e.Version))
		},
		OnSelectionCleared: func(_ context.Context, _ *domain.SelectionEvent) {
			m.SelectionsCleared.Inc()
		},
	}
}

// ObserveSnippet counts one rendered snippet.
func (m *Metrics) ObserveSnippet(format string) {
	m.SnippetsRendered.WithLabelValues(format).Inc()
}

// ObserveStore records one store call. A Load that finds nothing counts as "miss".
func (m *Metrics) ObserveStore(op string, d time.Duration, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		outcome = "miss"
	case err != nil:
		outcome = "error"
	}
	m.StoreOps.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// InstrumentSuggester records outcome and latency of every call made through next.
func (m *Metrics) InstrumentSuggester(next ports.Suggester, classify func(error) string) ports.Suggester {
	if classify == nil {
		classify = defaultOutcome
	}
	return &instrumentedSuggester{next: next, metrics: m, classify: classify}
}

type instrumentedSuggester struct {
	next     ports.Suggester
	metrics  *Metrics
	classify func(error) string
}

func (s *instrumentedSuggester) Suggest(ctx context.Context, req domain.SuggestRequest) ([]domain.Suggestion, error) {
	start := time.Now()
	out, err := s.next.Suggest(ctx, req)
	s.metrics.SuggestDuration.Observe(time.Since(start).Seconds())
	s.metrics.Suggestions.WithLabelValues(s.classify(err)).Inc()
	return out, err
}

func defaultOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
