package louvain

import (
	"math/rand"
)

// TestGraph is a named graph with the communities Louvain should find
type TestGraph struct {
	Name        string
	Graph       *Graph
	Expected    [][]int
	Modularity  float64
	Passes      int
	Description string
}

func createTestGraphs() []TestGraph {
	return []TestGraph{
		{
			Name:        "TwoTriangles",
			Graph:       createTwoTriangles(0),
			Expected:    [][]int{{0, 1, 2}, {3, 4, 5}},
			Modularity:  0.5,
			Passes:      1,
			Description: "Two disconnected unit triangles",
		},
		{
			Name:        "BridgedTriangles",
			Graph:       createTwoTriangles(0.1),
			Expected:    [][]int{{0, 1, 2}, {3, 4, 5}},
			Modularity:  2 * (6/12.2 - (6.1/12.2)*(6.1/12.2)),
			Passes:      1,
			Description: "Two unit triangles joined by a weak bridge",
		},
		{
			Name:        "Path",
			Graph:       createPath(4),
			Expected:    [][]int{{0, 1}, {2, 3}},
			Modularity:  1.0 / 6.0,
			Passes:      1,
			Description: "Path 0-1-2-3 with unit weights",
		},
		{
			Name:        "SelfLoop",
			Graph:       createSelfLoopGraph(),
			Expected:    [][]int{{0}, {1, 2}},
			Modularity:  4.0 / 9.0,
			Passes:      1,
			Description: "Node 0 with self weight 2 next to an edge 1-2",
		},
		{
			Name:        "SingleNode",
			Graph:       NewGraph(1),
			Expected:    [][]int{{0}},
			Modularity:  0,
			Passes:      0,
			Description: "One isolated node, zero total weight",
		},
	}
}

// createTwoTriangles builds triangles 0-1-2 and 3-4-5, joined by an edge
// 2-3 when bridge is positive
func createTwoTriangles(bridge float64) *Graph {
	g := NewGraph(6)
	g.AddUndirectedEdge(0, 1, 1)
	g.AddUndirectedEdge(1, 2, 1)
	g.AddUndirectedEdge(0, 2, 1)
	g.AddUndirectedEdge(3, 4, 1)
	g.AddUndirectedEdge(4, 5, 1)
	g.AddUndirectedEdge(3, 5, 1)
	if bridge > 0 {
		g.AddUndirectedEdge(2, 3, bridge)
	}
	return g
}

func createPath(n int) *Graph {
	g := NewGraph(n)
	for i := 0; i+1 < n; i++ {
		g.AddUndirectedEdge(i, i+1, 1)
	}
	return g
}

func createSelfLoopGraph() *Graph {
	g := NewGraph(3)
	g.AddSelfEdge(0, 2)
	g.AddUndirectedEdge(1, 2, 1)
	return g
}

// createCliqueGraph builds numCommunities unit cliques of nodesPerCommunity
// nodes; the first node of every clique is linked to the first node of
// every other clique with weight 0.1
func createCliqueGraph(numCommunities, nodesPerCommunity int) *Graph {
	g := NewGraph(numCommunities * nodesPerCommunity)
	for c := 0; c < numCommunities; c++ {
		base := c * nodesPerCommunity
		for i := 0; i < nodesPerCommunity; i++ {
			for j := i + 1; j < nodesPerCommunity; j++ {
				g.AddUndirectedEdge(base+i, base+j, 1)
			}
		}
	}
	for c1 := 0; c1 < numCommunities; c1++ {
		for c2 := c1 + 1; c2 < numCommunities; c2++ {
			g.AddUndirectedEdge(c1*nodesPerCommunity, c2*nodesPerCommunity, 0.1)
		}
	}
	return g
}

// createRandomGraph builds a reproducible random graph. Self weights are
// only added when selfLoops is set.
func createRandomGraph(seed int64, numNodes, numEdges int, selfLoops bool) *Graph {
	rng := rand.New(rand.NewSource(seed))
	g := NewGraph(numNodes)
	for k := 0; k < numEdges; k++ {
		i, j := rng.Intn(numNodes), rng.Intn(numNodes)
		w := float64(1 + rng.Intn(5))
		if i == j {
			if selfLoops {
				g.AddSelfEdge(i, w)
			}
			continue
		}
		g.AddUndirectedEdge(i, j, w)
	}
	return g
}

type passCollector struct {
	reports []PassReport
}

func (p *passCollector) ObservePass(report PassReport) {
	p.reports = append(p.reports, report)
}

type moveCollector struct {
	moves []Move
}

func (m *moveCollector) ObserveMove(move Move) {
	m.moves = append(m.moves, move)
}

func quietConfig() *Config {
	config := NewConfig()
	config.Set("logging.level", "disabled")
	return config
}
