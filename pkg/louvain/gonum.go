package louvain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// symmetryTolerance is the absolute tolerance used when checking that both
// directions of an edge carry the same weight before conversion
const symmetryTolerance = 1e-9

var (
	// ErrSelfLoops is returned when a graph with self weights is converted;
	// simple gonum graphs have no per-node self-loop weight.
	ErrSelfLoops = errors.New("graph has self-loop weights")

	// ErrAsymmetric is returned when the two directions of an edge differ
	ErrAsymmetric = errors.New("graph is not symmetric")
)

// ToGonum converts g to a gonum weighted undirected graph. Parallel edges
// between the same pair of nodes are merged by summing their weights.
func ToGonum(g *Graph) (*simple.WeightedUndirectedGraph, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if !g.IsSymmetric(symmetryTolerance) {
		return nil, ErrAsymmetric
	}

	out := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.NumNodes(); i++ {
		if w := g.SelfWeight(i); w != 0 {
			return nil, fmt.Errorf("node %d has self weight %g: %w", i, w, ErrSelfLoops)
		}
		out.AddNode(simple.Node(int64(i)))
	}

	for i := 0; i < g.NumNodes(); i++ {
		// Each undirected edge is taken once, from its lower endpoint
		weights := make(map[int]float64)
		for _, edge := range g.IncidentEdges(i) {
			if edge.Node > i {
				weights[edge.Node] += edge.Weight
			}
		}
		for j, w := range weights {
			out.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(int64(i)),
				T: simple.Node(int64(j)),
				W: w,
			})
		}
	}

	return out, nil
}

// GonumModularity computes the modularity of a partition of g with gonum's
// community.Q at resolution 1. Each entry of communities lists the nodes of
// one community.
func GonumModularity(g *Graph, communities [][]int) (float64, error) {
	gg, err := ToGonum(g)
	if err != nil {
		return 0, fmt.Errorf("failed to convert graph: %w", err)
	}

	seen := make([]bool, g.NumNodes())
	groups := make([][]graph.Node, len(communities))
	for c, members := range communities {
		groups[c] = make([]graph.Node, len(members))
		for k, node := range members {
			if node < 0 || node >= g.NumNodes() {
				return 0, fmt.Errorf("community %d has invalid node %d", c, node)
			}
			if seen[node] {
				return 0, fmt.Errorf("node %d appears in more than one community", node)
			}
			seen[node] = true
			groups[c][k] = simple.Node(int64(node))
		}
	}

	return community.Q(gg, groups, 1), nil
}
