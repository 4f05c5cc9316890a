package louvain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	passes := &passCollector{}
	moves := &moveCollector{}

	result, err := Run(context.Background(), createTwoTriangles(0.1), quietConfig(),
		WithPassObserver(passes), WithMoveObserver(moves))
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, result.Communities)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, result.FinalCommunities)
	assert.Equal(t, 2, result.NumCommunities())
	assert.Equal(t, 1, result.NumLevels)
	assert.Len(t, result.Levels, 1)
	assert.InDelta(t, 2*(6/12.2-(6.1/12.2)*(6.1/12.2)), result.Modularity, tolerance)

	stats := result.Statistics
	assert.Equal(t, 6, stats.NumNodes)
	assert.Equal(t, 14, stats.NumEdges)
	assert.InDelta(t, 12.2, stats.TotalWeight, tolerance)
	assert.Less(t, stats.InitialModularity, result.Modularity)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, len(moves.moves), stats.TotalMoves)
	assert.Len(t, passes.reports, 1)
}

func TestRunUsesConfiguredRunID(t *testing.T) {
	config := quietConfig()
	id := uuid.NewString()
	config.Set("run.id", id)

	result, err := Run(context.Background(), createPath(4), config)
	require.NoError(t, err)
	assert.Equal(t, id, result.RunID)
}

func TestRunWithNilConfig(t *testing.T) {
	t.Setenv("LOUVAIN_LOGGING_LEVEL", "disabled")

	result, err := Run(context.Background(), createPath(4), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, result.Communities)
}

func TestRunRejectsInvalidGraph(t *testing.T) {
	g := NewGraph(2)
	g.AddUndirectedEdge(0, 1, -2)

	_, err := Run(context.Background(), g, quietConfig())
	assert.ErrorContains(t, err, "invalid graph")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	config := quietConfig()
	config.Set("output.summary_format", "xml")

	_, err := Run(context.Background(), createPath(3), config)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, createTwoTriangles(0), quietConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunOnZeroWeightGraph(t *testing.T) {
	result, err := Run(context.Background(), NewGraph(2), quietConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Modularity)
	assert.Equal(t, 0, result.NumLevels)
	assert.Equal(t, [][]int{{0}, {1}}, result.Communities)
}
