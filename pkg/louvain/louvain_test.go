package louvain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

const tolerance = 1e-9

func TestLouvainOnKnownGraphs(t *testing.T) {
	for _, tg := range createTestGraphs() {
		t.Run(tg.Name, func(t *testing.T) {
			l := New(tg.Graph)
			l.Compute()

			assert.Equal(t, tg.Expected, l.Communities(), tg.Description)
			assert.InDelta(t, tg.Modularity, l.Modularity(), tolerance)
			assert.Equal(t, tg.Passes, l.Pass())
			assert.Equal(t, len(tg.Expected), l.NumCommunities())
			assert.Len(t, l.Levels(), tg.Passes)
		})
	}
}

func TestInitialPartition(t *testing.T) {
	l := New(createTwoTriangles(0))

	assert.Equal(t, 6, l.NumNodes())
	assert.Equal(t, 6, l.NumCommunities())
	assert.Equal(t, 12.0, l.TotalWeight())
	assert.InDelta(t, -1.0/6.0, l.Modularity(), tolerance)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, l.Partition())

	data := l.CommunityData()
	require.Len(t, data, 6)
	for _, c := range data {
		assert.Equal(t, 0.0, c.InWeight)
		assert.Equal(t, 2.0, c.TotalWeight)
	}
}

func TestSelfLoopCountsTwiceInInitialCommunity(t *testing.T) {
	l := New(createSelfLoopGraph())

	data := l.CommunityData()
	assert.Equal(t, CommunityData{InWeight: 4, TotalWeight: 4}, data[0])
	assert.Equal(t, 6.0, l.TotalWeight())
}

func TestZeroWeightGraphConvergesImmediately(t *testing.T) {
	l := New(NewGraph(3))
	require.NoError(t, l.ComputeContext(context.Background()))

	assert.Equal(t, 0, l.Pass())
	assert.Equal(t, 0.0, l.Modularity())
	assert.Equal(t, [][]int{{0}, {1}, {2}}, l.Communities())
	assert.Empty(t, l.Levels())
}

func TestEmptyGraph(t *testing.T) {
	l := New(NewGraph(0))
	l.Compute()

	assert.Equal(t, 0, l.NumCommunities())
	assert.Empty(t, l.Communities())
	assert.Empty(t, l.Partition())
}

func TestNewDoesNotModifyInput(t *testing.T) {
	g := createTwoTriangles(0.1)
	before := g.Clone()

	l := New(g)
	l.Compute()

	assert.Equal(t, before, g)
	assert.Equal(t, 2, l.Graph().NumNodes())
}

func TestAggregatedGraph(t *testing.T) {
	l := New(createTwoTriangles(0.1))
	l.Compute()

	agg := l.Graph()
	require.Equal(t, 2, agg.NumNodes())
	assert.Equal(t, 3.0, agg.SelfWeight(0))
	assert.Equal(t, 3.0, agg.SelfWeight(1))
	require.Len(t, agg.IncidentEdges(0), 1)
	assert.Equal(t, Edge{Node: 1, Weight: 0.1}, agg.IncidentEdges(0)[0])
	assert.True(t, agg.IsSymmetric(tolerance))
}

func TestLevelsDescribeHierarchy(t *testing.T) {
	l := New(createTwoTriangles(0))
	l.Compute()

	levels := l.Levels()
	require.Len(t, levels, 1)
	assert.Equal(t, 0, levels[0].Level)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, levels[0].Assignment)
	assert.Equal(t, 6, levels[0].NumNodes)
	assert.Equal(t, 2, levels[0].NumCommunities)
	assert.InDelta(t, 0.5, levels[0].Modularity, tolerance)
	assert.Positive(t, levels[0].NumMoves)
}

func TestLevelsComposeToPartition(t *testing.T) {
	g := createCliqueGraph(6, 4)
	l := New(g)
	l.Compute()

	partition := l.Partition()
	for node := range partition {
		current := node
		for _, level := range l.Levels() {
			current = level.Assignment[current]
		}
		assert.Equal(t, partition[node], current, "node %d", node)
	}
}

func TestCliquesAreRecovered(t *testing.T) {
	const numCommunities, size = 4, 5
	l := New(createCliqueGraph(numCommunities, size))
	l.Compute()

	comms := l.Communities()
	require.Len(t, comms, numCommunities)
	for _, members := range comms {
		require.Len(t, members, size)
		clique := members[0] / size
		for _, node := range members {
			assert.Equal(t, clique, node/size)
		}
	}
}

func TestWeightConservation(t *testing.T) {
	g := createCliqueGraph(5, 6)
	m2 := g.TotalWeight()

	l := New(g)
	l.Compute()

	assert.InDelta(t, m2, l.TotalWeight(), tolerance)
	assert.InDelta(t, m2, l.Graph().TotalWeight(), tolerance)

	total := 0.0
	for _, c := range l.CommunityData() {
		total += c.TotalWeight
	}
	assert.InDelta(t, m2, total, tolerance)
}

func TestComputeIsIdempotent(t *testing.T) {
	l := New(createCliqueGraph(4, 6))
	l.Compute()
	passes, q, partition := l.Pass(), l.Modularity(), l.Partition()

	l.Compute()
	assert.Equal(t, passes, l.Pass())
	assert.Equal(t, q, l.Modularity())
	assert.Equal(t, partition, l.Partition())
}

func TestFinalPartitionRoundTrip(t *testing.T) {
	g := createRandomGraph(11, 70, 250, true)
	l := New(g)
	l.Compute()

	totals := make([]float64, l.NumCommunities())
	for node, c := range l.Partition() {
		totals[c] += g.Degree(node)
	}

	sum := 0.0
	for c, tot := range totals {
		assert.InDelta(t, l.CommunityData()[c].TotalWeight, tot, tolerance, "community %d", c)
		sum += tot
	}
	assert.InDelta(t, g.TotalWeight(), sum, tolerance)
}

// conservationChecker verifies the community totals after every move
type conservationChecker struct {
	t      *testing.T
	engine *Louvain
	checks int
}

func (c *conservationChecker) ObserveMove(Move) {
	sum := 0.0
	for _, data := range c.engine.CommunityData() {
		sum += data.TotalWeight
	}
	assert.InDelta(c.t, c.engine.TotalWeight(), sum, tolerance)
	c.checks++
}

func TestWeightConservedAfterEveryMove(t *testing.T) {
	checker := &conservationChecker{t: t}
	l := New(createRandomGraph(5, 40, 120, true), WithMoveObserver(checker))
	checker.engine = l
	l.Compute()

	assert.Equal(t, l.TotalMoves(), checker.checks)
	assert.Positive(t, checker.checks)
}

func TestModularityNeverDecreases(t *testing.T) {
	passes := &passCollector{}
	l := New(createRandomGraph(7, 60, 200, true), WithPassObserver(passes))
	previous := l.Modularity()
	l.Compute()

	require.Len(t, passes.reports, l.Pass())
	for i, report := range passes.reports {
		assert.Equal(t, i+1, report.Pass)
		assert.GreaterOrEqual(t, report.Modularity, previous-tolerance)
		previous = report.Modularity
	}
	assert.InDelta(t, previous, l.Modularity(), tolerance)
}

func TestMoveObserver(t *testing.T) {
	moves := &moveCollector{}
	l := New(createTwoTriangles(0.1), WithMoveObserver(moves))
	l.Compute()

	require.Len(t, moves.moves, l.TotalMoves())
	for _, m := range moves.moves {
		assert.NotEqual(t, m.From, m.To)
		assert.Positive(t, m.Gain)
		assert.Equal(t, 0, m.Pass)
	}
}

func TestDeterminism(t *testing.T) {
	g := createRandomGraph(42, 80, 300, false)

	first := New(g)
	first.Compute()
	second := New(g)
	second.Compute()

	assert.Equal(t, first.Partition(), second.Partition())
	assert.Equal(t, first.Modularity(), second.Modularity())
	assert.Equal(t, first.Levels(), second.Levels())
}

func TestModularityMatchesGonum(t *testing.T) {
	graphs := map[string]*Graph{
		"triangles": createTwoTriangles(0.1),
		"cliques":   createCliqueGraph(5, 5),
		"random":    createRandomGraph(3, 50, 150, false),
	}

	for name, g := range graphs {
		t.Run(name, func(t *testing.T) {
			l := New(g)

			q, err := GonumModularity(g, l.Communities())
			require.NoError(t, err)
			assert.True(t, scalar.EqualWithinAbsOrRel(q, l.Modularity(), tolerance, tolerance),
				"initial: gonum %g, engine %g", q, l.Modularity())

			l.Compute()
			q, err = GonumModularity(g, l.Communities())
			require.NoError(t, err)
			assert.True(t, scalar.EqualWithinAbsOrRel(q, l.Modularity(), tolerance, tolerance),
				"final: gonum %g, engine %g", q, l.Modularity())
		})
	}
}

func TestComputeContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(createTwoTriangles(0))
	err := l.ComputeContext(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.Pass())
}

func BenchmarkLouvain(b *testing.B) {
	g := createCliqueGraph(100, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l := New(g)
		l.Compute()
	}
}
