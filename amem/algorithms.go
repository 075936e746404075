package amem

import (
	"fmt"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/query"
)

// CentralityMetric selects which graph centrality Engine.Centrality computes.
type CentralityMetric string

const (
	CentralityPageRank          CentralityMetric = "pagerank"
	CentralityDegree            CentralityMetric = "degree"
	CentralityBetweenness       CentralityMetric = "betweenness"
	CentralityBetweennessApprox CentralityMetric = "betweenness_approx"
)

// Centrality computes the requested centrality metric over the whole
// graph, indexed by node id (spec §6.3 "centrality(metric)").
func (e *Engine) Centrality(metric CentralityMetric) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	switch metric {
	case CentralityPageRank:
		return query.PageRank(e.g), nil
	case CentralityDegree:
		return query.DegreeCentrality(e.g), nil
	case CentralityBetweenness:
		return query.Betweenness(e.g), nil
	case CentralityBetweennessApprox:
		n := e.g.NodeCount()
		sample := n
		if sample > betweennessApproxSampleCap {
			sample = betweennessApproxSampleCap
		}
		return query.BetweennessApprox(e.g, sample, betweennessApproxSeed), nil
	default:
		return nil, fmt.Errorf("amem: centrality: unknown metric %q", metric)
	}
}

// betweennessApproxSampleCap and betweennessApproxSeed parameterize the
// approximate variant Centrality dispatches to when asked for it
// directly; callers wanting full control should call query.BetweennessApprox.
const (
	betweennessApproxSampleCap = 256
	betweennessApproxSeed      = 1
)

// ShortestPathAlgorithm selects the path-finding algorithm Engine.ShortestPath uses.
type ShortestPathAlgorithm string

const (
	ShortestPathBFS      ShortestPathAlgorithm = "bfs"
	ShortestPathWeighted ShortestPathAlgorithm = "dijkstra"
)

// ShortestPath finds a path between src and dst using the requested
// algorithm (spec §6.3 "shortest_path(src, dst, algorithm)").
func (e *Engine) ShortestPath(src, dst uint32, algorithm ShortestPathAlgorithm) (query.ShortestPathResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.ShortestPathResult{}, errs.ErrClosed
	}
	if _, ok := e.g.Node(src); !ok {
		return query.ShortestPathResult{}, errs.ErrNodeNotFound
	}
	if _, ok := e.g.Node(dst); !ok {
		return query.ShortestPathResult{}, errs.ErrNodeNotFound
	}

	switch algorithm {
	case ShortestPathBFS:
		return query.ShortestPathBFS(e.g, src, dst), nil
	case ShortestPathWeighted:
		return query.ShortestPathWeighted(e.g, src, dst)
	default:
		return query.ShortestPathResult{}, fmt.Errorf("amem: shortest path: unknown algorithm %q", algorithm)
	}
}
