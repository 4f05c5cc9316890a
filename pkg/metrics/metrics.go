package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gilchrisn/louvain-hierarchy/pkg/louvain"
)

// Registry holds the metrics of a Louvain run
type Registry struct {
	Modularity     prometheus.Gauge
	Communities    prometheus.Gauge
	Nodes          prometheus.Gauge
	PassesTotal    prometheus.Counter
	MovesTotal     prometheus.Counter
	PassMoves      prometheus.Histogram
	RunDuration    prometheus.Gauge
	RunsTotal      *prometheus.CounterVec
	OriginalNodes  prometheus.Gauge
	HierarchyDepth prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}
	r.initPassMetrics()
	r.initRunMetrics()
	return r
}

func (r *Registry) initPassMetrics() {
	r.Modularity = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_modularity",
		Help: "Modularity of the current partition",
	})

	r.Communities = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_communities",
		Help: "Number of communities after the last pass",
	})

	r.Nodes = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_level_nodes",
		Help: "Number of nodes of the graph the last pass ran on",
	})

	r.PassesTotal = promauto.With(r.registry).NewCounter(prometheus.CounterOpts{
		Name: "louvain_passes_total",
		Help: "Total number of aggregation passes",
	})

	r.MovesTotal = promauto.With(r.registry).NewCounter(prometheus.CounterOpts{
		Name: "louvain_moves_total",
		Help: "Total number of accepted local moves",
	})

	r.PassMoves = promauto.With(r.registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "louvain_pass_moves",
		Help:    "Number of local moves per pass",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})
}

func (r *Registry) initRunMetrics() {
	r.RunDuration = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_run_duration_seconds",
		Help: "Wall time of the last run in seconds",
	})

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "louvain_runs_total",
			Help: "Total number of runs",
		},
		[]string{"status"},
	)

	r.OriginalNodes = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_input_nodes",
		Help: "Number of nodes of the input graph",
	})

	r.HierarchyDepth = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "louvain_hierarchy_levels",
		Help: "Number of levels recorded in the hierarchy",
	})
}

// ObservePass records a completed aggregation pass
func (r *Registry) ObservePass(report louvain.PassReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.PassesTotal.Inc()
	r.MovesTotal.Add(float64(report.NumMoves))
	r.PassMoves.Observe(float64(report.NumMoves))
	r.Modularity.Set(report.Modularity)
	r.Communities.Set(float64(report.NumCommunities))
	r.Nodes.Set(float64(report.NumNodes))
}

// RecordRun records the outcome of a whole run. A nil result counts as a
// failed run.
func (r *Registry) RecordRun(result *louvain.Result, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.RunDuration.Set(duration.Seconds())
	if result == nil {
		r.RunsTotal.WithLabelValues("error").Inc()
		return
	}

	r.RunsTotal.WithLabelValues("success").Inc()
	r.Modularity.Set(result.Modularity)
	r.Communities.Set(float64(result.NumCommunities()))
	r.OriginalNodes.Set(float64(result.Statistics.NumNodes))
	r.HierarchyDepth.Set(float64(result.NumLevels))
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the Prometheus text format, for the
// node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
