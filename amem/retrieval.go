package amem

import (
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/query"
)

// Traverse runs a breadth-first walk from start up to maxDepth hops,
// optionally restricted to the given edge kinds (spec §6.3
// "traverse(engine, start, max_depth, kinds?, direction) → result").
func (e *Engine) Traverse(start uint32, maxDepth int, kinds []format.EdgeKind, direction format.Direction) (query.TraverseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.TraverseResult{}, errs.ErrClosed
	}
	if _, ok := e.g.Node(start); !ok {
		return query.TraverseResult{}, errs.ErrNodeNotFound
	}
	return query.Traverse(e.g, start, maxDepth, kinds, direction), nil
}

// ByType returns every node id of the given event kind.
func (e *Engine) ByType(kind format.EventKind) ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	return query.ByType(e.g, kind), nil
}

// BySession returns every node id belonging to the given session.
func (e *Engine) BySession(session uint32) ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	return query.BySession(e.g, session), nil
}

// InTimeRange returns every node id with a timestamp in [start, end].
func (e *Engine) InTimeRange(start, end int64) ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	return query.InTimeRange(e.g, start, end), nil
}

// Context returns the neighborhood around node up to depth hops (0 uses
// query.DefaultContextDepth).
func (e *Engine) Context(node uint32, depth int) (query.TraverseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.TraverseResult{}, errs.ErrClosed
	}
	if _, ok := e.g.Node(node); !ok {
		return query.TraverseResult{}, errs.ErrNodeNotFound
	}
	return query.Context(e.g, node, depth), nil
}

// Similar ranks nodes by cosine similarity to queryVec (spec §6.3
// "similar / text_search / hybrid"), touching each returned node's access
// counter since results are materialized for the caller.
func (e *Engine) Similar(queryVec []float32, k int, filters query.Filters) ([]query.Scored, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	res := query.Similar(e.g, queryVec, k, filters)
	e.touchAll(res)
	return res, nil
}

// TextSearch ranks nodes by BM25 relevance to a free-text query.
func (e *Engine) TextSearch(text string, k int) ([]query.Scored, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	res := query.TextSearch(e.g, text, k)
	e.touchAll(res)
	return res, nil
}

// Hybrid combines BM25 and cosine rankings via reciprocal rank fusion.
func (e *Engine) Hybrid(text string, queryVec []float32, k int) ([]query.Scored, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	res := query.Hybrid(e.g, text, queryVec, k)
	e.touchAll(res)
	return res, nil
}

func (e *Engine) touchAll(res []query.Scored) {
	for _, s := range res {
		e.g.Touch(s.NodeID)
	}
}

// Resolve follows a node's supersedes chain to its terminal (spec §4.6,
// §6.3 indirectly via the cognitive query family).
func (e *Engine) Resolve(id uint32) (query.ResolveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.ResolveResult{}, errs.ErrClosed
	}
	if _, ok := e.g.Node(id); !ok {
		return query.ResolveResult{}, errs.ErrNodeNotFound
	}
	return query.Resolve(e.g, id)
}

// Impact reports the downstream cascade of a node, partitioned by event kind.
func (e *Engine) Impact(id uint32, maxDepth int) (query.ImpactResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.ImpactResult{}, errs.ErrClosed
	}
	if _, ok := e.g.Node(id); !ok {
		return query.ImpactResult{}, errs.ErrNodeNotFound
	}
	return query.Impact(e.g, id, maxDepth), nil
}
