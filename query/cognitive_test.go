package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/query"
)

func buildCognitiveGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.Config{Dimension: 4})
	fact, err := g.AddNode(format.EventFact, 1, 0.9, 100, "budget approved", nil, []float32{1, 0, 0, 0})
	require.NoError(t, err)
	inference, err := g.AddNode(format.EventInference, 1, 0.8, 200, "project is funded", nil, []float32{0.9, 0.1, 0, 0})
	require.NoError(t, err)
	decision, err := g.AddNode(format.EventDecision, 1, 0.85, 300, "hire contractor", nil, []float32{0, 1, 0, 0})
	require.NoError(t, err)
	_, err = g.AddEdge(fact, inference, format.EdgeSupports, 0.6)
	require.NoError(t, err)
	_, err = g.AddEdge(inference, decision, format.EdgeCausedBy, 0.7)
	require.NoError(t, err)
	return g
}

func TestReviseReducesDownstreamConfidence(t *testing.T) {
	g := buildCognitiveGraph(t)
	revisions := query.Revise(g, 0, 4, 0.5)
	require.NotEmpty(t, revisions)
	var sawInference bool
	for _, r := range revisions {
		if r.NodeID == 1 {
			sawInference = true
			assert.Less(t, r.NewConfidence, float32(0.8))
		}
	}
	assert.True(t, sawInference)
}

func TestGapsDetectsUnjustifiedDecision(t *testing.T) {
	g := graph.New(graph.Config{})
	_, err := g.AddNode(format.EventDecision, 0, 0.9, 0, "ship it", nil, nil)
	require.NoError(t, err)
	gaps := query.Gaps(g, nil)
	require.Len(t, gaps, 1)
	assert.Equal(t, query.GapUnjustifiedDecision, gaps[0].Category)
}

func TestGapsDetectsSingleSourceInference(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 0.9, 0, "a", nil, nil)
	b, err := g.AddNode(format.EventInference, 0, 0.9, 0, "b", nil, nil)
	require.NoError(t, err)
	_, err = g.AddEdge(a, b, format.EdgeSupports, 0.5)
	require.NoError(t, err)

	gaps := query.Gaps(g, nil)
	var found bool
	for _, gp := range gaps {
		if gp.Category == query.GapSingleSourceInference && gp.NodeID == b {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalogyExcludesProbe(t *testing.T) {
	g := buildCognitiveGraph(t)
	res := query.Analogy(g, 0, 5, 0.5)
	for _, s := range res {
		assert.NotEqual(t, uint32(0), s.NodeID)
	}
	assert.NotEmpty(t, res)
}

func TestDriftComputesStabilityScore(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 0.9, 100, "v1", nil, nil)
	b, _ := g.AddNode(format.EventCorrection, 0, 0.8, 200, "v2", nil, nil)
	c, _ := g.AddNode(format.EventCorrection, 0, 0.7, 400, "v3", nil, nil)
	_, err := g.AddEdge(b, a, format.EdgeSupersedes, 1.0)
	require.NoError(t, err)
	_, err = g.AddEdge(c, b, format.EdgeSupersedes, 1.0)
	require.NoError(t, err)

	chains := query.Drift(g)
	require.Len(t, chains, 1)
	assert.Equal(t, []uint32{c, b, a}, chains[0].NodeIDs)
	assert.InDelta(t, 1.0/3.0, chains[0].StabilityScore, 1e-9)
	assert.InDelta(t, 150.0, chains[0].MeanRevisionInterval, 1e-9)
}

func TestConsolidateFindsDuplicatesAndOrphans(t *testing.T) {
	g := graph.New(graph.Config{Dimension: 4})
	a, err := g.AddNode(format.EventFact, 0, 0.9, 0, "x", nil, []float32{1, 0, 0, 0})
	require.NoError(t, err)
	b, err := g.AddNode(format.EventFact, 0, 0.9, 0, "x dup", nil, []float32{1, 0.001, 0, 0})
	require.NoError(t, err)
	orphan, err := g.AddNode(format.EventFact, 0, 0.9, 0, "alone", nil, nil)
	require.NoError(t, err)

	report := query.Consolidate(g, 1000, query.ConsolidationThresholds{})
	assert.Contains(t, report.Duplicates, [2]uint32{a, b})
	assert.Contains(t, report.Orphans, orphan)
}
