package amem_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/amem"
	"github.com/agentmem/amem/codec"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/query"
)

// End-to-end scenarios (spec §8).

func TestScenarioCorrectionChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.amem")
	e, err := amem.Create(path)
	require.NoError(t, err)
	defer e.Close()

	a, err := e.Add(format.EventFact, "deadline = March 15", 0, 0.95, nil)
	require.NoError(t, err)
	b, err := e.Add(format.EventCorrection, "deadline = April 1", 0, 0.98, nil)
	require.NoError(t, err)
	_, err = e.Link(b, a, format.EdgeSupersedes, 1.0)
	require.NoError(t, err)

	resA, err := e.Resolve(a)
	require.NoError(t, err)
	assert.Equal(t, b, resA.Terminal)

	resB, err := e.Resolve(b)
	require.NoError(t, err)
	assert.Equal(t, b, resB.Terminal)
}

func TestScenarioImpactCascade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.amem")
	e, err := amem.Create(path)
	require.NoError(t, err)
	defer e.Close()

	f1, err := e.Add(format.EventFact, "f1", 0, 0.9, nil)
	require.NoError(t, err)
	f2, err := e.Add(format.EventFact, "f2", 0, 0.9, nil)
	require.NoError(t, err)
	i, err := e.Add(format.EventInference, "i", 0, 0.8, nil)
	require.NoError(t, err)
	d, err := e.Add(format.EventDecision, "d", 0, 0.85, nil)
	require.NoError(t, err)

	_, err = e.Link(i, f1, format.EdgeSupports, 0.6)
	require.NoError(t, err)
	_, err = e.Link(i, f2, format.EdgeSupports, 0.6)
	require.NoError(t, err)
	_, err = e.Link(d, i, format.EdgeCausedBy, 0.7)
	require.NoError(t, err)

	impactF1, err := e.Impact(f1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{i, d}, flattenImpact(impactF1))

	impactF2, err := e.Impact(f2, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{i, d}, flattenImpact(impactF2))

	impactI, err := e.Impact(i, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{d}, flattenImpact(impactI))
}

func flattenImpact(res query.ImpactResult) []uint32 {
	var out []uint32
	for _, ids := range res.ByKind {
		out = append(out, ids...)
	}
	return out
}

func TestScenarioHybridSearch(t *testing.T) {
	g := graph.New(graph.Config{Dimension: 3})

	fact1, err := g.AddNode(format.EventFact, 0, 1.0, 100, "database connection pool exhausted", nil, []float32{1, 0, 0})
	require.NoError(t, err)
	fact2, err := g.AddNode(format.EventFact, 0, 1.0, 200, "connection refused error", nil, []float32{0.8, 0.2, 0})
	require.NoError(t, err)
	fact3, err := g.AddNode(format.EventFact, 0, 1.0, 300, "user preferred dark mode", nil, []float32{0, 0, 1})
	require.NoError(t, err)

	fused := query.Hybrid(g, "connection pool", []float32{1, 0, 0}, 0)
	require.Len(t, fused, 3)

	assert.Equal(t, fact1, fused[0].NodeID)
	assert.Equal(t, fact2, fused[1].NodeID)
	assert.Equal(t, fact3, fused[2].NodeID)

	assert.InDelta(t, 2.0/61.0, fused[0].Score, 1e-9)
	assert.InDelta(t, 2.0/62.0, fused[1].Score, 1e-9)
	assert.InDelta(t, 1.0/63.0, fused[2].Score, 1e-9)
}

func TestScenarioSupersedesCycleRejection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.amem")
	e, err := amem.Create(path)
	require.NoError(t, err)
	defer e.Close()

	a, err := e.Add(format.EventFact, "a", 0, 0.9, nil)
	require.NoError(t, err)
	b, err := e.Add(format.EventFact, "b", 0, 0.9, nil)
	require.NoError(t, err)
	_, err = e.Link(a, b, format.EdgeSupersedes, 1.0)
	require.NoError(t, err)

	_, err = e.Link(b, a, format.EdgeSupersedes, 1.0)
	assert.ErrorIs(t, err, errs.ErrCycle)
}

func TestScenarioBidirectionalBFS(t *testing.T) {
	g := graph.New(graph.Config{})

	const chainLen = 49
	center, err := g.AddNode(format.EventFact, 0, 1.0, 0, "center", nil, nil)
	require.NoError(t, err)

	// ShortestPathBFS walks out-edges from src and in-edges into dst, so
	// the left chain is wired pointing inward (leftEnd -> ... -> center)
	// and the right chain outward (center -> ... -> rightEnd): together
	// they form one directed path from leftEnd through center to rightEnd.
	buildChainToward := func(to uint32, length int) uint32 {
		prev := to
		for i := 0; i < length; i++ {
			cur, err := g.AddNode(format.EventFact, 0, 1.0, 0, "link", nil, nil)
			require.NoError(t, err)
			_, err = g.AddEdge(cur, prev, format.EdgeRelatedTo, 1.0)
			require.NoError(t, err)
			prev = cur
		}
		return prev
	}
	buildChainFrom := func(from uint32, length int) uint32 {
		prev := from
		for i := 0; i < length; i++ {
			cur, err := g.AddNode(format.EventFact, 0, 1.0, 0, "link", nil, nil)
			require.NoError(t, err)
			_, err = g.AddEdge(prev, cur, format.EdgeRelatedTo, 1.0)
			require.NoError(t, err)
			prev = cur
		}
		return prev
	}

	leftEnd := buildChainToward(center, chainLen)
	rightEnd := buildChainFrom(center, chainLen)

	require.Equal(t, 1+2*chainLen, g.NodeCount())

	res := query.ShortestPathBFS(g, leftEnd, rightEnd)
	require.True(t, res.Found)
	assert.Equal(t, 2*chainLen, len(res.Path)-1)
	assert.Contains(t, res.Path, center)
}

func TestScenarioFormatRoundTripAtScale(t *testing.T) {
	if testing.Short() {
		t.Skip("scale scenario skipped in short mode")
	}
	g := graph.New(graph.Config{})

	const nodeCount = 10000
	for i := 0; i < nodeCount; i++ {
		_, err := g.AddNode(format.EventFact, uint32(i%16), 0.5, int64(i), "node content", nil, nil)
		require.NoError(t, err)
	}

	const edgeCount = 50000
	added := 0
	for src := uint32(0); src < nodeCount && added < edgeCount; src++ {
		for offset := uint32(1); offset <= 5 && added < edgeCount; offset++ {
			dst := (src + offset) % nodeCount
			if dst == src {
				continue
			}
			if _, err := g.AddEdge(src, dst, format.EdgeRelatedTo, 1.0); err == nil {
				added++
			}
		}
	}

	path := filepath.Join(t.TempDir(), "scale.amem")
	require.NoError(t, codec.WriteGraphFile(path, g, codec.DefaultOptions()))

	data, err := codec.ReadFile(path)
	require.NoError(t, err)
	reread, err := codec.DecodeGraph(data)
	require.NoError(t, err)

	assert.Equal(t, g.NodeCount(), reread.NodeCount())
	assert.Equal(t, g.EdgeCount(), reread.EdgeCount())

	for _, n := range g.Nodes() {
		rn, ok := reread.Node(n.ID)
		require.True(t, ok)
		assert.Equal(t, n.Content, rn.Content)
	}

	origOut := adjacencySet(g)
	rereadOut := adjacencySet(reread)
	assert.Equal(t, origOut, rereadOut)
}

func adjacencySet(g *graph.Graph) map[[2]uint32]bool {
	set := make(map[[2]uint32]bool)
	for _, e := range g.Edges() {
		set[[2]uint32{e.Source, e.Target}] = true
	}
	return set
}
