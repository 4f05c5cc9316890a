package louvain

import (
	"container/list"
	"context"

	"github.com/rs/zerolog"
)

// CommunityData holds the running aggregates of one community
type CommunityData struct {
	InWeight    float64 `json:"in_weight" yaml:"in_weight"`       // twice the weight internal to the community
	TotalWeight float64 `json:"total_weight" yaml:"total_weight"` // sum of member degrees
}

// Level records one aggregation round of the hierarchy
type Level struct {
	Level          int     `json:"level" yaml:"level"`
	Assignment     []int   `json:"assignment" yaml:"assignment"` // node at this level -> node at the next level
	NumNodes       int     `json:"num_nodes" yaml:"num_nodes"`
	NumCommunities int     `json:"num_communities" yaml:"num_communities"`
	NumMoves       int     `json:"num_moves" yaml:"num_moves"`
	Modularity     float64 `json:"modularity" yaml:"modularity"`
}

// Move describes a single node reassignment during the local-move phase
type Move struct {
	Pass int     `json:"pass"`
	Node int     `json:"node"`
	From int     `json:"from_comm"`
	To   int     `json:"to_comm"`
	Gain float64 `json:"gain"`
}

// PassReport is emitted after every completed aggregation pass
type PassReport struct {
	Pass           int     `json:"pass"`
	Modularity     float64 `json:"modularity"`
	NumNodes       int     `json:"num_nodes"`
	NumCommunities int     `json:"num_communities"`
	NumMoves       int     `json:"num_moves"`
}

// MoveObserver receives every accepted local move
type MoveObserver interface {
	ObserveMove(move Move)
}

// PassObserver receives a report after every aggregation pass
type PassObserver interface {
	ObservePass(report PassReport)
}

// Option configures a Louvain engine
type Option func(*Louvain)

// WithLogger sets the logger used for progress reporting
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Louvain) { l.logger = logger }
}

// WithMoveObserver registers an observer for local moves
func WithMoveObserver(observer MoveObserver) Option {
	return func(l *Louvain) { l.moveObserver = observer }
}

// WithPassObserver registers an observer for completed passes
func WithPassObserver(observer PassObserver) Option {
	return func(l *Louvain) { l.passObserver = observer }
}

// Louvain runs the two-phase modularity optimization. It works on its own
// copy of the input graph, which is replaced by smaller aggregated graphs as
// the computation proceeds.
type Louvain struct {
	graph       *Graph
	inCommunity []int           // current-level node -> current-level community
	n2c         []int           // original node -> current-level node
	communities []CommunityData // indexed by current-level community
	m2          float64
	pass        int
	moves       int
	totalMoves  int
	levels      []Level

	// Scratch buffers for neighbour-community weights, reused node to node.
	// neighIndex[c] is the position of community c in neighComms or -1.
	neighIndex   []int
	neighComms   []int
	neighWeights []float64

	logger       zerolog.Logger
	moveObserver MoveObserver
	passObserver PassObserver
}

// New creates an engine with every node in its own community
func New(graph *Graph, opts ...Option) *Louvain {
	n := graph.NumNodes()
	l := &Louvain{
		graph:       graph.Clone(),
		inCommunity: make([]int, n),
		n2c:         make([]int, n),
		communities: make([]CommunityData, n),
		neighIndex:  make([]int, n),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	for i := 0; i < n; i++ {
		l.inCommunity[i] = i
		l.n2c[i] = i
		l.neighIndex[i] = -1

		self := graph.SelfWeight(i)
		degree := graph.Degree(i)
		l.communities[i] = CommunityData{InWeight: 2 * self, TotalWeight: degree}
		l.m2 += degree
	}

	l.logger.Info().
		Int("nodes", n).
		Int("edges", graph.NumEdges()).
		Float64("total_weight", l.m2).
		Float64("modularity", l.Modularity()).
		Msg("Initial partition")

	return l
}

// Compute runs local moves and aggregation until no node moves
func (l *Louvain) Compute() {
	_ = l.ComputeContext(context.Background())
}

// ComputeContext is Compute with a cancellation check between passes
func (l *Louvain) ComputeContext(ctx context.Context) error {
	if l.m2 == 0 {
		l.logger.Warn().Msg("Graph has zero total weight, nothing to optimize")
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !l.merge() {
			break
		}

		numNodes := l.graph.NumNodes()
		l.rebuild()
		l.pass++

		report := PassReport{
			Pass:           l.pass,
			Modularity:     l.Modularity(),
			NumNodes:       numNodes,
			NumCommunities: l.NumCommunities(),
			NumMoves:       l.moves,
		}
		l.logger.Info().
			Int("pass", report.Pass).
			Float64("modularity", report.Modularity).
			Int("nodes", report.NumNodes).
			Int("communities", report.NumCommunities).
			Int("moves", report.NumMoves).
			Msg("Pass completed")
		if l.passObserver != nil {
			l.passObserver.ObservePass(report)
		}
	}

	l.logger.Info().
		Int("passes", l.pass).
		Int("communities", l.NumCommunities()).
		Float64("modularity", l.Modularity()).
		Msg("Louvain converged")
	return nil
}

// merge performs the local-move phase on the current graph and reports
// whether any node changed community
func (l *Louvain) merge() bool {
	l.moves = 0
	if l.m2 == 0 {
		return false
	}

	n := l.graph.NumNodes()
	queue := list.New()
	queued := make([]bool, n)
	for i := 0; i < n; i++ {
		queue.PushBack(i)
		queued[i] = true
	}

	improved := false
	for queue.Len() > 0 {
		i, ok := queue.Remove(queue.Front()).(int)
		if !ok {
			continue
		}
		queued[i] = false

		edges := l.graph.IncidentEdges(i)
		self := l.graph.SelfWeight(i)
		prev := l.inCommunity[i]
		degree := l.collectNeighborWeights(i, prev)

		// prev is always the first entry
		prevWeight := l.neighWeights[0]
		l.remove(i, prev, 2*prevWeight+2*self, degree)

		best, bestWeight, bestGain := prev, prevWeight, 0.0
		for k, c := range l.neighComms {
			gain := l.neighWeights[k] - l.communities[c].TotalWeight*degree/l.m2
			if gain > bestGain {
				best, bestWeight, bestGain = c, l.neighWeights[k], gain
			}
		}

		l.insert(i, best, 2*bestWeight+2*self, degree)
		l.clearNeighborWeights()

		if best == prev {
			continue
		}

		improved = true
		l.moves++
		l.totalMoves++
		if l.moveObserver != nil {
			l.moveObserver.ObserveMove(Move{Pass: l.pass, Node: i, From: prev, To: best, Gain: bestGain})
		}

		for _, edge := range edges {
			if !queued[edge.Node] {
				queue.PushBack(edge.Node)
				queued[edge.Node] = true
			}
		}
	}

	l.logger.Debug().
		Int("pass", l.pass).
		Int("moves", l.moves).
		Float64("modularity", l.Modularity()).
		Msg("Local moves finished")

	return improved
}

// collectNeighborWeights fills the scratch buffers with the weight from node
// i to each neighbouring community, starting with i's own community, and
// returns the degree of i
func (l *Louvain) collectNeighborWeights(i, own int) float64 {
	l.addNeighborWeight(own, 0)

	degree := 2 * l.graph.SelfWeight(i)
	for _, edge := range l.graph.IncidentEdges(i) {
		l.addNeighborWeight(l.inCommunity[edge.Node], edge.Weight)
		degree += edge.Weight
	}
	return degree
}

func (l *Louvain) addNeighborWeight(community int, weight float64) {
	pos := l.neighIndex[community]
	if pos < 0 {
		l.neighIndex[community] = len(l.neighComms)
		l.neighComms = append(l.neighComms, community)
		l.neighWeights = append(l.neighWeights, weight)
		return
	}
	l.neighWeights[pos] += weight
}

func (l *Louvain) clearNeighborWeights() {
	for _, c := range l.neighComms {
		l.neighIndex[c] = -1
	}
	l.neighComms = l.neighComms[:0]
	l.neighWeights = l.neighWeights[:0]
}

func (l *Louvain) remove(node, community int, inWeight, totalWeight float64) {
	l.communities[community].InWeight -= inWeight
	l.communities[community].TotalWeight -= totalWeight
	l.inCommunity[node] = -1
}

func (l *Louvain) insert(node, community int, inWeight, totalWeight float64) {
	l.communities[community].InWeight += inWeight
	l.communities[community].TotalWeight += totalWeight
	l.inCommunity[node] = community
}

// Modularity returns the modularity of the current partition
func (l *Louvain) Modularity() float64 {
	if l.m2 == 0 {
		return 0
	}

	q := 0.0
	for _, comm := range l.communities {
		q += comm.InWeight/l.m2 - (comm.TotalWeight/l.m2)*(comm.TotalWeight/l.m2)
	}
	return q
}

// NumCommunities returns the number of non-empty communities at the current level
func (l *Louvain) NumCommunities() int {
	seen := make([]bool, len(l.communities))
	count := 0
	for _, c := range l.inCommunity {
		if c >= 0 && !seen[c] {
			seen[c] = true
			count++
		}
	}
	return count
}

// NumNodes returns the node count of the current (possibly aggregated) graph
func (l *Louvain) NumNodes() int {
	return l.graph.NumNodes()
}

// Pass returns the number of completed aggregation passes
func (l *Louvain) Pass() int {
	return l.pass
}

// TotalMoves returns the number of local moves accepted over the whole run
func (l *Louvain) TotalMoves() int {
	return l.totalMoves
}

// TotalWeight returns m2, twice the total edge weight of the input graph
func (l *Louvain) TotalWeight() float64 {
	return l.m2
}

// Graph returns the current working graph
func (l *Louvain) Graph() *Graph {
	return l.graph
}

// CommunityData returns a copy of the per-community aggregates
func (l *Louvain) CommunityData() []CommunityData {
	out := make([]CommunityData, len(l.communities))
	copy(out, l.communities)
	return out
}

// Levels returns the recorded hierarchy, one entry per aggregation pass
func (l *Louvain) Levels() []Level {
	out := make([]Level, len(l.levels))
	copy(out, l.levels)
	return out
}

// Partition returns the final community of every original node.
// Community ids are dense and ordered like the current-level communities.
func (l *Louvain) Partition() []int {
	partition, _ := l.finalAssignment()
	return partition
}

// Communities groups the original nodes by final community id
func (l *Louvain) Communities() [][]int {
	partition, num := l.finalAssignment()
	comms := make([][]int, num)
	for node, c := range partition {
		comms[c] = append(comms[c], node)
	}
	return comms
}

func (l *Louvain) finalAssignment() ([]int, int) {
	present := make([]bool, len(l.communities))
	for _, c := range l.inCommunity {
		present[c] = true
	}

	renumber := make([]int, len(present))
	num := 0
	for c, ok := range present {
		if ok {
			renumber[c] = num
			num++
		}
	}

	partition := make([]int, len(l.n2c))
	for node, current := range l.n2c {
		partition[node] = renumber[l.inCommunity[current]]
	}
	return partition, num
}
