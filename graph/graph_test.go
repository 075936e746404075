package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

func TestAddNodeAssignsMonotonicIDs(t *testing.T) {
	g := graph.New(graph.Config{Dimension: 4})

	ids := make([]uint32, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := g.AddNode(format.EventFact, 1, 0.9, int64(i), "x", nil, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i, id := range ids {
		assert.Equal(t, uint32(i), id)
	}
	assert.Equal(t, 5, g.NodeCount())
}

func TestAddNodeRejectsOutOfRangeConfidence(t *testing.T) {
	g := graph.New(graph.Config{})

	_, err := g.AddNode(format.EventFact, 0, 1.00001, 0, "x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfidenceOutOfRange)

	_, err = g.AddNode(format.EventFact, 0, -0.0001, 0, "x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfidenceOutOfRange)

	_, err = g.AddNode(format.EventFact, 0, 0.0, 0, "x", nil, nil)
	assert.NoError(t, err)
	_, err = g.AddNode(format.EventFact, 0, 1.0, 0, "x", nil, nil)
	assert.NoError(t, err)
}

func TestAddNodeRejectsContentTooLarge(t *testing.T) {
	g := graph.New(graph.Config{MaxContentLength: 4})

	_, err := g.AddNode(format.EventFact, 0, 1, 0, "hello", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrContentTooLarge)

	_, err = g.AddNode(format.EventFact, 0, 1, 0, "four", nil, nil)
	assert.NoError(t, err)
}

func TestAddNodeRejectsDimensionMismatch(t *testing.T) {
	g := graph.New(graph.Config{Dimension: 3})

	_, err := g.AddNode(format.EventFact, 0, 1, 0, "x", nil, []float32{1, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDimensionMismatch)

	_, err = g.AddNode(format.EventFact, 0, 1, 0, "x", nil, []float32{1, 2, 3})
	assert.NoError(t, err)
}

func TestAddEdgeValidatesEndpoints(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 1, 0, "a", nil, nil)

	_, err := g.AddEdge(a, 99, format.EdgeSupports, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEdgeEndpointInvalid)

	_, err = g.AddEdge(99, a, format.EdgeSupports, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEdgeEndpointInvalid)
}

func TestAddEdgeValidatesWeight(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 1, 0, "a", nil, nil)
	b, _ := g.AddNode(format.EventFact, 0, 1, 0, "b", nil, nil)

	_, err := g.AddEdge(a, b, format.EdgeSupports, 1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrWeightOutOfRange)
}

func TestAddEdgeRejectsSupersedesCycle(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 1, 0, "a", nil, nil)
	b, _ := g.AddNode(format.EventFact, 0, 1, 0, "b", nil, nil)

	_, err := g.AddEdge(a, b, format.EdgeSupersedes, 1)
	require.NoError(t, err)

	_, err = g.AddEdge(b, a, format.EdgeSupersedes, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCycle)
}

func TestAddEdgeRejectsSelfSupersedes(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 1, 0, "a", nil, nil)

	_, err := g.AddEdge(a, a, format.EdgeSupersedes, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCycle)
}

func TestSessionRangesSpanInterleavedNodes(t *testing.T) {
	g := graph.New(graph.Config{})
	_, _ = g.AddNode(format.EventFact, 1, 1, 0, "a", nil, nil)
	_, _ = g.AddNode(format.EventFact, 2, 1, 0, "b", nil, nil)
	_, _ = g.AddNode(format.EventFact, 1, 1, 0, "c", nil, nil)

	sessions := g.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, uint32(1), sessions[0].SessionID)
	assert.Equal(t, uint32(0), sessions[0].FirstNode)
	assert.Equal(t, uint32(2), sessions[0].LastNode)
	assert.Equal(t, uint32(2), sessions[1].SessionID)
	assert.Equal(t, uint32(1), sessions[1].FirstNode)
	assert.Equal(t, uint32(1), sessions[1].LastNode)
}

func TestUpdateMetadataUnknownNode(t *testing.T) {
	g := graph.New(graph.Config{})
	err := g.UpdateMetadata(0, map[string]string{"k": "v"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNodeNotFound)
}

func TestOutgoingIncomingEdges(t *testing.T) {
	g := graph.New(graph.Config{})
	a, _ := g.AddNode(format.EventFact, 0, 1, 0, "a", nil, nil)
	b, _ := g.AddNode(format.EventInference, 0, 1, 0, "b", nil, nil)
	_, err := g.AddEdge(b, a, format.EdgeSupports, 0.5)
	require.NoError(t, err)

	out := g.OutgoingEdges(b)
	require.Len(t, out, 1)
	assert.Equal(t, a, out[0].Target)

	in := g.IncomingEdges(a)
	require.Len(t, in, 1)
	assert.Equal(t, b, in[0].Source)
}
