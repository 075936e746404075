package amem

import (
	"fmt"
	"strings"

	"github.com/agentmem/amem/codec"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/maintenance"
	"github.com/agentmem/amem/query"
)

// Revise computes the counterfactual confidence cascade that would result
// from retracting target, without mutating the graph (spec §4.8 "revise").
func (e *Engine) Revise(target uint32, depth int, threshold float32) ([]query.Revision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	if _, ok := e.g.Node(target); !ok {
		return nil, errs.ErrNodeNotFound
	}
	return query.Revise(e.g, target, depth, threshold), nil
}

// Gaps detects every reasoning-gap category across the graph, scoring
// staleness from the engine's configured decay half-life.
func (e *Engine) Gaps() ([]query.Gap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	now := nowUnix()
	decayOf := func(id uint32) float64 {
		n, ok := e.g.Node(id)
		if !ok {
			return 0
		}
		return e.cfg.Decay.Score(n, now)
	}
	return query.Gaps(e.g, decayOf), nil
}

// Analogy ranks nodes by structural-plus-content similarity to probe (spec
// §4.8 "analogy").
func (e *Engine) Analogy(probe uint32, k int) ([]query.Scored, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	if _, ok := e.g.Node(probe); !ok {
		return nil, errs.ErrNodeNotFound
	}
	res := query.Analogy(e.g, probe, k, query.DefaultAnalogyAlpha)
	e.touchAll(res)
	return res, nil
}

// Drift returns every maximal supersedes chain, optionally restricted to
// chains whose terminal node's content mentions topic (a case-insensitive
// substring match; spec §4.8 "drift(topic?)" leaves topic's semantics
// unspecified beyond "analyze each maximal supersedes chain").
func (e *Engine) Drift(topic string) ([]query.DriftChain, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	chains := query.Drift(e.g)
	if topic == "" {
		return chains, nil
	}
	topic = strings.ToLower(topic)
	var out []query.DriftChain
	for _, c := range chains {
		if len(c.NodeIDs) == 0 {
			continue
		}
		last := c.NodeIDs[len(c.NodeIDs)-1]
		n, ok := e.g.Node(last)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(n.Content), topic) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Consolidate runs the consolidation heuristics (spec §4.8 "consolidate").
// With dryRun true it only returns the report; with dryRun false it also
// applies the report's non-destructive mutations (duplicate and orphan
// tagging, contradiction linking, promotion tagging) and durably commits
// the result, since applying a report is documented as "a separate step
// that rewrites the file".
func (e *Engine) Consolidate(dryRun bool, th query.ConsolidationThresholds) (query.ConsolidationReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return query.ConsolidationReport{}, errs.ErrClosed
	}

	report := query.Consolidate(e.g, nowUnix(), th)
	if dryRun {
		return report, nil
	}

	if _, err := maintenance.ApplyConsolidation(e.g, report); err != nil {
		return report, fmt.Errorf("amem: consolidate: %w", err)
	}
	e.dirty = true
	if err := codec.WriteGraphFile(e.path, e.g, e.cfg.codecOptions()); err != nil {
		return report, fmt.Errorf("amem: consolidate: write: %w", err)
	}
	e.dirty = false
	return report, nil
}
