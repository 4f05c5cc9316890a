package louvain

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Result contains the complete result of a Louvain run
type Result struct {
	RunID            string     `json:"run_id" yaml:"run_id"`
	Levels           []Level    `json:"levels" yaml:"levels"`
	FinalCommunities []int      `json:"final_communities" yaml:"final_communities"` // original node -> community
	Communities      [][]int    `json:"communities" yaml:"communities"`             // community -> original nodes
	Modularity       float64    `json:"modularity" yaml:"modularity"`
	NumLevels        int        `json:"num_levels" yaml:"num_levels"`
	Statistics       Statistics `json:"statistics" yaml:"statistics"`
}

// Statistics contains run metrics
type Statistics struct {
	NumNodes          int     `json:"num_nodes" yaml:"num_nodes"`
	NumEdges          int     `json:"num_edges" yaml:"num_edges"`
	TotalWeight       float64 `json:"total_weight" yaml:"total_weight"`
	InitialModularity float64 `json:"initial_modularity" yaml:"initial_modularity"`
	Passes            int     `json:"passes" yaml:"passes"`
	TotalMoves        int     `json:"total_moves" yaml:"total_moves"`
	RuntimeMS         int64   `json:"runtime_ms" yaml:"runtime_ms"`
	MemoryPeakMB      int64   `json:"memory_peak_mb" yaml:"memory_peak_mb"`
}

// NumCommunities returns the number of final communities
func (r *Result) NumCommunities() int {
	return len(r.Communities)
}

// Run validates the graph, runs Louvain to convergence and collects the result
func Run(ctx context.Context, graph *Graph, config *Config, opts ...Option) (*Result, error) {
	startTime := time.Now()

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	runID := config.RunID()
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := config.CreateLogger().With().Str("run_id", runID).Logger()

	logger.Info().
		Int("nodes", graph.NumNodes()).
		Int("edges", graph.NumEdges()).
		Msg("Starting Louvain algorithm")

	engine := New(graph, append([]Option{WithLogger(logger)}, opts...)...)
	initialModularity := engine.Modularity()

	if err := engine.ComputeContext(ctx); err != nil {
		return nil, fmt.Errorf("louvain interrupted after %d passes: %w", engine.Pass(), err)
	}

	result := NewResult(engine)
	result.RunID = runID
	result.Statistics.NumEdges = graph.NumEdges()
	result.Statistics.InitialModularity = initialModularity
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
	result.Statistics.MemoryPeakMB = getMemoryUsage()

	logger.Info().
		Int("levels", result.NumLevels).
		Int("communities", result.NumCommunities()).
		Float64("final_modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Louvain algorithm completed")

	return result, nil
}

// NewResult snapshots the state of an engine
func NewResult(engine *Louvain) *Result {
	levels := engine.Levels()
	partition := engine.Partition()
	return &Result{
		Levels:           levels,
		FinalCommunities: partition,
		Communities:      engine.Communities(),
		Modularity:       engine.Modularity(),
		NumLevels:        len(levels),
		Statistics: Statistics{
			NumNodes:    len(partition),
			TotalWeight: engine.TotalWeight(),
			Passes:      engine.Pass(),
			TotalMoves:  engine.TotalMoves(),
		},
	}
}

// getMemoryUsage returns current memory usage in MB
func getMemoryUsage() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
