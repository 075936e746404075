package query

import (
	"container/heap"
	"math"
	"math/rand"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
)

const (
	pageRankDamping     = 0.85
	pageRankTolerance   = 1e-6
	pageRankMaxIters    = 100
	pageRankSeed        = 1
	betweenSampleCutoff = 2000 // not referenced; callers choose Betweenness or BetweennessApprox explicitly
)

// PageRank computes each node's PageRank score via power iteration, treating
// every edge as an equally-weighted directed link regardless of kind.
func PageRank(g *graph.Graph) []float64 {
	n := g.NodeCount()
	if n == 0 {
		return nil
	}
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	outDegree := make([]int, n)
	for i := 0; i < n; i++ {
		outDegree[i] = len(g.Outgoing(uint32(i)))
	}

	for iter := 0; iter < pageRankMaxIters; iter++ {
		next := make([]float64, n)
		var danglingMass float64
		for i := 0; i < n; i++ {
			if outDegree[i] == 0 {
				danglingMass += rank[i]
			}
		}
		base := (1 - pageRankDamping + pageRankDamping*danglingMass) / float64(n)
		for i := range next {
			next[i] = base
		}
		for i := 0; i < n; i++ {
			if outDegree[i] == 0 {
				continue
			}
			share := pageRankDamping * rank[i] / float64(outDegree[i])
			for _, ref := range g.Outgoing(uint32(i)) {
				next[ref.Node] += share
			}
		}

		var delta float64
		for i := range next {
			delta += math.Abs(next[i] - rank[i])
		}
		rank = next
		if delta < pageRankTolerance {
			break
		}
	}
	return rank
}

// DegreeCentrality returns each node's (in+out) degree normalized by n-1.
func DegreeCentrality(g *graph.Graph) []float64 {
	n := g.NodeCount()
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for i := 0; i < n; i++ {
		deg := len(g.Outgoing(uint32(i))) + len(g.Incoming(uint32(i)))
		out[i] = float64(deg) / float64(n-1)
	}
	return out
}

// Betweenness computes exact betweenness centrality via Brandes' algorithm
// on a graph treated as undirected and unweighted. For graphs larger than
// betweenSampleCutoff, BetweennessApprox with a default sample should be
// preferred; this function always computes the exact value.
func Betweenness(g *graph.Graph) []float64 {
	return betweennessFromSources(g, allNodeIDs(g))
}

// BetweennessApprox estimates betweenness centrality by running Brandes'
// algorithm from a random sample of source nodes and scaling the result,
// per spec §4.7 "approximate sampled variant with a configurable sample
// size".
func BetweennessApprox(g *graph.Graph, sampleSize int, seed int64) []float64 {
	n := g.NodeCount()
	if sampleSize <= 0 || sampleSize >= n {
		return Betweenness(g)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	sources := make([]uint32, sampleSize)
	for i := 0; i < sampleSize; i++ {
		sources[i] = uint32(perm[i])
	}
	scores := betweennessFromSources(g, sources)
	scale := float64(n) / float64(sampleSize)
	for i := range scores {
		scores[i] *= scale
	}
	return scores
}

func allNodeIDs(g *graph.Graph) []uint32 {
	n := g.NodeCount()
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// betweennessFromSources runs Brandes' single-source accumulation step from
// each id in sources and sums the contributions.
func betweennessFromSources(g *graph.Graph, sources []uint32) []float64 {
	n := g.NodeCount()
	cb := make([]float64, n)
	if n == 0 {
		return cb
	}

	neighbors := func(id uint32) []uint32 {
		var out []uint32
		for _, ref := range g.Outgoing(id) {
			out = append(out, ref.Node)
		}
		for _, ref := range g.Incoming(id) {
			out = append(out, ref.Node)
		}
		return out
	}

	for _, s := range sources {
		stack := make([]uint32, 0, n)
		preds := make([][]uint32, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []uint32{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range neighbors(v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				if sigma[w] != 0 {
					delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
				}
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	// Undirected double-counting correction (each pair's shortest path is
	// explored from both endpoints' BFS when sources covers all nodes).
	if len(sources) == n {
		for i := range cb {
			cb[i] /= 2
		}
	}
	return cb
}

// ShortestPathResult is the outcome of a shortest-path search.
type ShortestPathResult struct {
	Found  bool
	Path   []uint32
	Length float64
}

// ShortestPathBFS finds an unweighted shortest path between src and dst via
// bidirectional breadth-first search along outgoing edges, returning the
// first path found and its length, or Found=false if none exists.
func ShortestPathBFS(g *graph.Graph, src, dst uint32) ShortestPathResult {
	if src == dst {
		return ShortestPathResult{Found: true, Path: []uint32{src}, Length: 0}
	}

	forwardParent := map[uint32]uint32{src: src}
	backwardParent := map[uint32]uint32{dst: dst}
	forwardFrontier := []uint32{src}
	backwardFrontier := []uint32{dst}

	for len(forwardFrontier) > 0 && len(backwardFrontier) > 0 {
		meet, ok := bfsExpand(forwardFrontier, forwardParent, backwardParent, func(id uint32) []uint32 {
			return outNeighbors(g, id)
		})
		if ok {
			return buildBidirectionalPath(meet, forwardParent, backwardParent)
		}
		forwardFrontier = bfsNextFrontier(forwardFrontier, forwardParent, func(id uint32) []uint32 {
			return outNeighbors(g, id)
		})

		meet, ok = bfsExpand(backwardFrontier, backwardParent, forwardParent, func(id uint32) []uint32 {
			return inNeighbors(g, id)
		})
		if ok {
			return buildBidirectionalPath(meet, forwardParent, backwardParent)
		}
		backwardFrontier = bfsNextFrontier(backwardFrontier, backwardParent, func(id uint32) []uint32 {
			return inNeighbors(g, id)
		})
	}
	return ShortestPathResult{Found: false}
}

func outNeighbors(g *graph.Graph, id uint32) []uint32 {
	refs := g.Outgoing(id)
	out := make([]uint32, len(refs))
	for i, r := range refs {
		out[i] = r.Node
	}
	return out
}

func inNeighbors(g *graph.Graph, id uint32) []uint32 {
	refs := g.Incoming(id)
	out := make([]uint32, len(refs))
	for i, r := range refs {
		out[i] = r.Node
	}
	return out
}

// bfsExpand checks whether any node already in parent (the side being
// expanded) has a neighbor present in otherParent, reporting the first such
// meeting point.
func bfsExpand(frontier []uint32, parent, otherParent map[uint32]uint32, neighborsOf func(uint32) []uint32) (uint32, bool) {
	for _, v := range frontier {
		for _, w := range neighborsOf(v) {
			if _, ok := otherParent[w]; ok {
				if _, already := parent[w]; !already {
					parent[w] = v
				}
				return w, true
			}
		}
	}
	return 0, false
}

// bfsNextFrontier advances one BFS layer, recording parents for newly
// discovered nodes.
func bfsNextFrontier(frontier []uint32, parent map[uint32]uint32, neighborsOf func(uint32) []uint32) []uint32 {
	var next []uint32
	for _, v := range frontier {
		for _, w := range neighborsOf(v) {
			if _, seen := parent[w]; !seen {
				parent[w] = v
				next = append(next, w)
			}
		}
	}
	return next
}

func buildBidirectionalPath(meet uint32, forwardParent, backwardParent map[uint32]uint32) ShortestPathResult {
	var left []uint32
	for cur := meet; ; {
		left = append([]uint32{cur}, left...)
		p := forwardParent[cur]
		if p == cur {
			break
		}
		cur = p
	}
	var right []uint32
	for cur := meet; ; {
		p := backwardParent[cur]
		if p == cur {
			break
		}
		right = append(right, p)
		cur = p
	}
	path := append(left, right...)
	return ShortestPathResult{Found: true, Path: path, Length: float64(len(path) - 1)}
}

// dijkstraItem is one entry of ShortestPathWeighted's priority queue.
type dijkstraItem struct {
	node uint32
	cost float64
}

type dijkstraHeap []dijkstraItem

func (h dijkstraHeap) Len() int            { return len(h) }
func (h dijkstraHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h dijkstraHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *dijkstraHeap) Push(x interface{}) { *h = append(*h, x.(dijkstraItem)) }
func (h *dijkstraHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ShortestPathWeighted finds the minimum-cost path from src to dst via
// Dijkstra's algorithm, treating each edge's cost as 1-weight (higher
// weight means a shorter distance). Returns an error wrapping
// errs.ErrWeightOutOfRange if an edge cost would be negative (weight > 1),
// and Found=false if no path exists.
func ShortestPathWeighted(g *graph.Graph, src, dst uint32) (ShortestPathResult, error) {
	n := g.NodeCount()
	dist := make([]float64, n)
	prev := make([]uint32, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0

	h := &dijkstraHeap{{node: src, cost: 0}}
	heap.Init(h)

	for h.Len() > 0 {
		cur := heap.Pop(h).(dijkstraItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == dst {
			break
		}
		for _, ref := range g.Outgoing(cur.node) {
			e := g.Edges()[ref.Edge]
			cost := 1 - float64(e.Weight)
			if cost < 0 {
				return ShortestPathResult{}, errs.ErrWeightOutOfRange
			}
			nd := dist[cur.node] + cost
			if nd < dist[ref.Node] {
				dist[ref.Node] = nd
				prev[ref.Node] = cur.node
				heap.Push(h, dijkstraItem{node: ref.Node, cost: nd})
			}
		}
	}

	if math.IsInf(dist[dst], 1) {
		return ShortestPathResult{Found: false}, nil
	}
	var path []uint32
	for cur := dst; ; {
		path = append([]uint32{cur}, path...)
		if cur == src {
			break
		}
		cur = prev[cur]
	}
	return ShortestPathResult{Found: true, Path: path, Length: dist[dst]}, nil
}
