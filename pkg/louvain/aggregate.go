package louvain

// rebuild collapses every community of the current level into a single
// node of a new graph and makes that graph the working graph
func (l *Louvain) rebuild() {
	numNodes := l.graph.NumNodes()
	numComms := l.renumberCommunities()

	l.levels = append(l.levels, Level{
		Level:          len(l.levels),
		Assignment:     append([]int(nil), l.inCommunity...),
		NumNodes:       numNodes,
		NumCommunities: numComms,
		NumMoves:       l.moves,
		Modularity:     l.Modularity(),
	})

	members := make([][]int, numComms)
	for node, c := range l.inCommunity {
		members[c] = append(members[c], node)
	}

	next := NewGraph(numComms)
	for c, nodes := range members {
		self := 0.0
		internal := 0.0
		for _, node := range nodes {
			self += l.graph.SelfWeight(node)
			for _, edge := range l.graph.IncidentEdges(node) {
				target := l.inCommunity[edge.Node]
				if target == c {
					internal += edge.Weight
					continue
				}
				l.addNeighborWeight(target, edge.Weight)
			}
		}

		// internal edges were seen from both endpoints
		next.AddSelfEdge(c, self+internal/2)
		for k, target := range l.neighComms {
			next.AddDirectedEdge(c, target, l.neighWeights[k])
		}
		l.clearNeighborWeights()
	}

	l.graph.Swap(next)

	l.inCommunity = l.inCommunity[:numComms]
	for i := range l.inCommunity {
		l.inCommunity[i] = i
	}
	l.neighIndex = l.neighIndex[:numComms]

	l.logger.Debug().
		Int("level", len(l.levels)-1).
		Int("original_nodes", numNodes).
		Int("super_nodes", numComms).
		Float64("compression_ratio", float64(numComms)/float64(numNodes)).
		Msg("Graph aggregation completed")
}

// renumberCommunities drops empty communities, renumbers the rest densely in
// order of first appearance and folds the renumbering into n2c. It returns
// the number of surviving communities.
func (l *Louvain) renumberCommunities() int {
	renumber := make([]int, len(l.communities))
	for c := range renumber {
		renumber[c] = -1
	}

	num := 0
	for node, c := range l.inCommunity {
		if renumber[c] < 0 {
			renumber[c] = num
			num++
		}
		l.inCommunity[node] = renumber[c]
	}

	for node, current := range l.n2c {
		l.n2c[node] = l.inCommunity[current]
	}

	shrunk := make([]CommunityData, num)
	for c, r := range renumber {
		if r >= 0 {
			shrunk[r] = l.communities[c]
		}
	}
	l.communities = shrunk

	return num
}
