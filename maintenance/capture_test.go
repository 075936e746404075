package maintenance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/maintenance"
)

func TestRedactStripsEmailsSecretsAndPaths(t *testing.T) {
	in := "contact jane.doe@example.com, key sk-ABCDEFGHIJKL123456, file /home/jane/.ssh/id_rsa"
	out := maintenance.Redact(in)
	assert.NotContains(t, out, "jane.doe@example.com")
	assert.NotContains(t, out, "sk-ABCDEFGHIJKL123456")
	assert.NotContains(t, out, "/home/jane/.ssh/id_rsa")
}

func TestCaptureOffRejectsEverything(t *testing.T) {
	cfg := maintenance.CaptureConfig{Mode: maintenance.CaptureOff}
	assert.False(t, cfg.Accepts(maintenance.Payload{Field: "feedback", Content: "x"}))
}

func TestCaptureSafeOnlyAcceptsKnownFields(t *testing.T) {
	cfg := maintenance.CaptureConfig{Mode: maintenance.CaptureSafe}
	assert.True(t, cfg.Accepts(maintenance.Payload{Field: "feedback"}))
	assert.True(t, cfg.Accepts(maintenance.Payload{Field: "summary"}))
	assert.False(t, cfg.Accepts(maintenance.Payload{Field: "raw_prompt"}))
}

func TestCaptureFullExcludesDuplicates(t *testing.T) {
	cfg := maintenance.CaptureConfig{Mode: maintenance.CaptureFull}
	assert.True(t, cfg.Accepts(maintenance.Payload{Field: "raw_prompt"}))
	assert.False(t, cfg.Accepts(maintenance.Payload{Field: "raw_prompt", DuplicatesMemoryAdd: true}))
}

func TestPrepareTruncatesToByteCap(t *testing.T) {
	cfg := maintenance.CaptureConfig{ByteCap: 5}
	out := cfg.Prepare(maintenance.Payload{Content: "abcdefgh"})
	assert.Equal(t, "abcde", out)
}

func TestCaptureAppendsNode(t *testing.T) {
	g := graph.New(graph.Config{})
	cfg := maintenance.DefaultCaptureConfig()

	id, ok, err := maintenance.Capture(g, cfg, 1, 500, maintenance.Payload{Field: "feedback", Content: "looks good"})
	require.NoError(t, err)
	require.True(t, ok)

	n, found := g.Node(id)
	require.True(t, found)
	assert.Equal(t, format.EventFact, n.Kind)
	assert.Equal(t, "looks good", n.Content)
}

func TestCaptureRejectedReturnsFalse(t *testing.T) {
	g := graph.New(graph.Config{})
	cfg := maintenance.DefaultCaptureConfig() // safe mode

	id, ok, err := maintenance.Capture(g, cfg, 1, 500, maintenance.Payload{Field: "raw_prompt", Content: "ignored"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), id)
}
