package louvain

import (
	"fmt"
	"math"
)

// Edge is one entry of a node's incidence list
type Edge struct {
	Node   int     `json:"node"`
	Weight float64 `json:"weight"`
}

// Graph represents a weighted undirected graph as per-node incidence lists.
// Self-loops are kept out of the incidence lists in a separate self-weight
// slot; a self weight w contributes 2w to the node's degree.
type Graph struct {
	selfs      []float64
	incidences [][]Edge
}

// NewGraph creates a new graph with n isolated nodes
func NewGraph(numNodes int) *Graph {
	return &Graph{
		selfs:      make([]float64, numNodes),
		incidences: make([][]Edge, numNodes),
	}
}

// NumNodes returns the number of nodes
func (g *Graph) NumNodes() int {
	return len(g.incidences)
}

// AddSelfEdge sets the self-loop weight of node i, replacing any previous value
func (g *Graph) AddSelfEdge(i int, weight float64) {
	g.selfs[i] = weight
}

// AddUndirectedEdge adds an edge between i and j to both incidence lists.
// Parallel edges are kept as separate entries.
func (g *Graph) AddUndirectedEdge(i, j int, weight float64) {
	g.mustNotLoop(i, j)
	g.incidences[i] = append(g.incidences[i], Edge{Node: j, Weight: weight})
	g.incidences[j] = append(g.incidences[j], Edge{Node: i, Weight: weight})
}

// AddDirectedEdge adds an edge from i to j to i's incidence list only
func (g *Graph) AddDirectedEdge(i, j int, weight float64) {
	g.mustNotLoop(i, j)
	g.incidences[i] = append(g.incidences[i], Edge{Node: j, Weight: weight})
}

func (g *Graph) mustNotLoop(i, j int) {
	if i == j {
		panic(fmt.Sprintf("louvain: edge %d-%d is a self-loop, use AddSelfEdge", i, j))
	}
}

// IncidentEdges returns the incidence list of node i. The slice is owned by
// the graph and must not be modified.
func (g *Graph) IncidentEdges(i int) []Edge {
	return g.incidences[i]
}

// SelfWeight returns the self-loop weight of node i
func (g *Graph) SelfWeight(i int) float64 {
	return g.selfs[i]
}

// Degree returns the weighted degree of node i, self-loop counted twice
func (g *Graph) Degree(i int) float64 {
	degree := 2 * g.selfs[i]
	for _, edge := range g.incidences[i] {
		degree += edge.Weight
	}
	return degree
}

// TotalWeight returns twice the total edge weight (the sum of all degrees)
func (g *Graph) TotalWeight() float64 {
	m2 := 0.0
	for i := range g.incidences {
		m2 += g.Degree(i)
	}
	return m2
}

// NumEdges returns the number of incidence entries across all nodes
func (g *Graph) NumEdges() int {
	count := 0
	for _, edges := range g.incidences {
		count += len(edges)
	}
	return count
}

// Swap exchanges the contents of g and other without copying edges
func (g *Graph) Swap(other *Graph) {
	g.selfs, other.selfs = other.selfs, g.selfs
	g.incidences, other.incidences = other.incidences, g.incidences
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	for i := range g.incidences {
		self := g.selfs[i]
		if math.IsNaN(self) || math.IsInf(self, 0) || self < 0 {
			return fmt.Errorf("invalid self weight %f for node %d", self, i)
		}

		for _, edge := range g.incidences[i] {
			if edge.Node < 0 || edge.Node >= len(g.incidences) {
				return fmt.Errorf("invalid neighbor %d for node %d", edge.Node, i)
			}
			if edge.Node == i {
				return fmt.Errorf("self entry in incidence list of node %d", i)
			}
			if math.IsNaN(edge.Weight) || math.IsInf(edge.Weight, 0) || edge.Weight < 0 {
				return fmt.Errorf("invalid weight %f for edge %d-%d", edge.Weight, i, edge.Node)
			}
		}
	}

	return nil
}

// IsSymmetric reports whether, for every pair of nodes, the summed weight
// from i to j equals the summed weight from j to i within tolerance
func (g *Graph) IsSymmetric(tolerance float64) bool {
	type pair struct{ from, to int }
	sums := make(map[pair]float64)
	for i, edges := range g.incidences {
		for _, edge := range edges {
			sums[pair{i, edge.Node}] += edge.Weight
		}
	}

	for p, w := range sums {
		if math.Abs(sums[pair{p.to, p.from}]-w) > tolerance {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes())
	copy(clone.selfs, g.selfs)
	for i, edges := range g.incidences {
		if len(edges) == 0 {
			continue
		}
		clone.incidences[i] = make([]Edge, len(edges))
		copy(clone.incidences[i], edges)
	}
	return clone
}
