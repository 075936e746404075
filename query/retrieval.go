package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/index"
	"github.com/agentmem/amem/internal/tokenize"
)

// ByType returns every node id of the given kind, ascending.
func ByType(g *graph.Graph, kind format.EventKind) []uint32 {
	var out []uint32
	for _, n := range g.Nodes() {
		if n.Kind == kind {
			out = append(out, n.ID)
		}
	}
	return out
}

// BySession returns every node id belonging to session sid, ascending.
func BySession(g *graph.Graph, sid uint32) []uint32 {
	var out []uint32
	for _, n := range g.Nodes() {
		if n.Session == sid {
			out = append(out, n.ID)
		}
	}
	return out
}

// InTimeRange returns every node id with lo <= timestamp <= hi, ascending.
func InTimeRange(g *graph.Graph, lo, hi int64) []uint32 {
	var out []uint32
	for _, n := range g.Nodes() {
		if n.Timestamp >= lo && n.Timestamp <= hi {
			out = append(out, n.ID)
		}
	}
	return out
}

// Traverse performs a breadth-first walk from start following edges of the
// given kinds (nil/empty means all kinds) in direction, stopping at
// maxDepth or when the frontier empties. Duplicate visits are suppressed.
func Traverse(g *graph.Graph, start uint32, maxDepth int, kinds []format.EdgeKind, direction format.Direction) TraverseResult {
	visited := map[uint32]bool{start: true}
	order := []uint32{start}
	var followed []graph.Edge
	followedSeen := map[uint32]bool{}

	frontier := []uint32{start}
	depth := 0
	for depth < maxDepth && len(frontier) > 0 {
		var next []uint32
		for _, n := range frontier {
			for _, ref := range adjacentRefs(g, n, direction) {
				e := edgeOf(g, ref)
				if !kindAllowed(e.Kind, kinds) {
					continue
				}
				if !followedSeen[ref.Edge] {
					followedSeen[ref.Edge] = true
					followed = append(followed, e)
				}
				if !visited[ref.Node] {
					visited[ref.Node] = true
					order = append(order, ref.Node)
					next = append(next, ref.Node)
				}
			}
		}
		frontier = next
		depth++
	}

	return TraverseResult{Visited: order, Edges: followed, MaxDepth: depth}
}

// Context is Traverse with direction=both and a small default depth.
const DefaultContextDepth = 2

func Context(g *graph.Graph, node uint32, depth int) TraverseResult {
	if depth <= 0 {
		depth = DefaultContextDepth
	}
	return Traverse(g, node, depth, nil, format.DirectionBoth)
}

func adjacentRefs(g *graph.Graph, id uint32, direction format.Direction) []graph.AdjRef {
	switch direction {
	case format.DirectionForward:
		return g.Outgoing(id)
	case format.DirectionBackward:
		return g.Incoming(id)
	default:
		out := append([]graph.AdjRef(nil), g.Outgoing(id)...)
		return append(out, g.Incoming(id)...)
	}
}

func edgeOf(g *graph.Graph, ref graph.AdjRef) graph.Edge {
	return g.Edges()[ref.Edge]
}

func kindAllowed(k format.EdgeKind, kinds []format.EdgeKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Similar returns the top-k nodes by cosine similarity to queryVec. When the
// graph has enough vectors to form a useful cluster map, only the members of
// the nearest sqrt(number of centroids) centroids are scanned; otherwise every vector is
// scanned. Ties are broken by ascending node id.
func Similar(g *graph.Graph, queryVec []float32, k int, filters Filters) []Scored {
	candidates := clusterPrunedCandidates(g, queryVec)

	scored := make([]Scored, 0, len(candidates))
	for _, id := range candidates {
		n, ok := g.Node(id)
		if !ok || !n.HasVector() || !filters.allows(n) {
			continue
		}
		scored = append(scored, Scored{NodeID: id, Score: cosine(queryVec, n.Vector)})
	}
	sortScoredDesc(scored)
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

func clusterPrunedCandidates(g *graph.Graph, queryVec []float32) []uint32 {
	nodes := g.Nodes()
	vectorCount := 0
	for _, n := range nodes {
		if n.HasVector() {
			vectorCount++
		}
	}
	if vectorCount < 2*index.DefaultClusterCount {
		all := make([]uint32, 0, vectorCount)
		for _, n := range nodes {
			if n.HasVector() {
				all = append(all, n.ID)
			}
		}
		return all
	}

	dim := int(g.Config().Dimension)
	cm := index.BuildClusterMap(g, dim, 0)
	nearest := int(math.Sqrt(float64(len(cm.Centroids))))
	if nearest < 1 {
		nearest = 1
	}
	clusters := cm.NearestCentroids(queryVec, nearest)
	seen := map[int]bool{}
	for _, c := range clusters {
		seen[c] = true
	}
	var out []uint32
	for id, c := range cm.Assignments {
		if seen[c] {
			out = append(out, uint32(id))
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sortScoredDesc(s []Scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].NodeID < s[j].NodeID
	})
}

// bm25K1 and bm25B are the fixed BM25 parameters (spec §4.6).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// TextSearch ranks nodes by BM25 score against query, highest first.
func TextSearch(g *graph.Graph, query string, k int) []Scored {
	terms := tokenize.Tokens(query)
	if len(terms) == 0 {
		return nil
	}

	ti := index.BuildTermIndex(g)
	docLengths := index.BuildDocLengths(g)
	avgLen := index.AverageLength(docLengths)
	if avgLen == 0 {
		avgLen = 1
	}

	scores := make(map[uint32]float64)
	for _, term := range terms {
		key := index.TermKey(term)
		postings, ok := ti.Postings[key]
		if !ok {
			continue
		}
		df := float64(ti.DocFreq[key])
		idf := math.Log(1 + (float64(ti.NumDocs)-df+0.5)/(df+0.5))
		for _, p := range postings {
			dl := float64(docLengths[p.NodeID])
			tf := float64(p.TF)
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/avgLen)
			scores[p.NodeID] += idf * (tf * (bm25K1 + 1) / denom)
		}
	}

	out := make([]Scored, 0, len(scores))
	for id, s := range scores {
		out = append(out, Scored{NodeID: id, Score: s})
	}
	sortScoredDesc(out)
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// rrfK is Reciprocal Rank Fusion's smoothing constant (spec §4.6).
const rrfK = 60

// Hybrid fuses BM25 and vector top-k lists via Reciprocal Rank Fusion.
func Hybrid(g *graph.Graph, query string, queryVec []float32, k int) []Scored {
	textRanked := TextSearch(g, query, 0)
	vecRanked := Similar(g, queryVec, g.NodeCount(), Filters{})

	fused := make(map[uint32]float64)
	for rank, s := range textRanked {
		fused[s.NodeID] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, s := range vecRanked {
		fused[s.NodeID] += 1.0 / float64(rrfK+rank+1)
	}

	out := make([]Scored, 0, len(fused))
	for id, s := range fused {
		out = append(out, Scored{NodeID: id, Score: s})
	}
	sortScoredDesc(out)
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// Resolve follows outgoing supersedes edges from id until a terminal node
// (no outgoing supersedes edge) is reached. This engine's own AddEdge
// already rejects any edge that would close a supersedes cycle, but a file
// written by another implementation could still contain one; Resolve
// detects that case via a visited set and returns errs.ErrCycle instead of
// treating the revisited node as an ordinary terminal.
func Resolve(g *graph.Graph, id uint32) (ResolveResult, error) {
	chain := []uint32{id}
	visited := map[uint32]bool{id: true}
	cur := id
	for {
		next, ok := nextSupersedes(g, cur)
		if !ok {
			break
		}
		if visited[next] {
			return ResolveResult{}, fmt.Errorf("resolve %d: cycle through %d: %w", id, next, errs.ErrCycle)
		}
		visited[next] = true
		chain = append(chain, next)
		cur = next
	}
	return ResolveResult{Terminal: cur, Chain: chain}, nil
}

func nextSupersedes(g *graph.Graph, id uint32) (uint32, bool) {
	for _, ref := range g.Outgoing(id) {
		if g.Edges()[ref.Edge].Kind == format.EdgeSupersedes {
			return ref.Node, true
		}
	}
	return 0, false
}

// Impact performs a reverse-direction traversal along edges of any kind
// from id, partitioning the affected nodes by event kind.
func Impact(g *graph.Graph, id uint32, maxDepth int) ImpactResult {
	res := Traverse(g, id, maxDepth, nil, format.DirectionBackward)
	byKind := make(map[format.EventKind][]uint32)
	for _, nid := range res.Visited {
		if nid == id {
			continue
		}
		n, ok := g.Node(nid)
		if !ok {
			continue
		}
		byKind[n.Kind] = append(byKind[n.Kind], nid)
	}
	return ImpactResult{ByKind: byKind}
}
