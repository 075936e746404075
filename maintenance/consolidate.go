package maintenance

import (
	"fmt"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/query"
)

// ApplyResult records what ApplyConsolidation actually changed, so callers
// can log or inspect the mutation without re-deriving it from the report.
type ApplyResult struct {
	Promoted          []uint32
	ContradictionEdges []uint32
	TaggedOrphans     []uint32
	TaggedDuplicates  [][2]uint32
}

// ApplyConsolidation mutates g according to a previously computed
// query.ConsolidationReport. It never deletes nodes, since the graph has
// no deletion primitive: duplicates and orphans are tagged via metadata
// rather than removed, promotable inferences are tagged promoted, and
// unlinked contradictions get an explicit EdgeContradicts edge so later
// traversals see them.
func ApplyConsolidation(g *graph.Graph, report query.ConsolidationReport) (ApplyResult, error) {
	var res ApplyResult

	for _, pair := range report.Duplicates {
		if err := tagMetadata(g, pair[1], "duplicate_of", fmt.Sprintf("%d", pair[0])); err != nil {
			return res, fmt.Errorf("maintenance: tag duplicate %d: %w", pair[1], err)
		}
		res.TaggedDuplicates = append(res.TaggedDuplicates, pair)
	}

	for _, pair := range report.UnlinkedContradictions {
		if _, err := g.AddEdge(pair[0], pair[1], format.EdgeContradicts, 1.0); err != nil {
			return res, fmt.Errorf("maintenance: link contradiction %d->%d: %w", pair[0], pair[1], err)
		}
		res.ContradictionEdges = append(res.ContradictionEdges, pair[0], pair[1])
	}

	for _, id := range report.PromotableInferences {
		if err := tagMetadata(g, id, "promoted", "true"); err != nil {
			return res, fmt.Errorf("maintenance: promote %d: %w", id, err)
		}
		res.Promoted = append(res.Promoted, id)
	}

	for _, id := range report.Orphans {
		if err := tagMetadata(g, id, "orphan", "true"); err != nil {
			return res, fmt.Errorf("maintenance: tag orphan %d: %w", id, err)
		}
		res.TaggedOrphans = append(res.TaggedOrphans, id)
	}

	return res, nil
}

// tagMetadata merges a single key/value into node id's existing metadata.
func tagMetadata(g *graph.Graph, id uint32, key, value string) error {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("node %d: %w", id, errs.ErrNodeNotFound)
	}
	merged := make(map[string]string, len(n.Metadata)+1)
	for k, v := range n.Metadata {
		merged[k] = v
	}
	merged[key] = value
	return g.UpdateMetadata(id, merged)
}
