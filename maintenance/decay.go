// Package maintenance implements the housekeeping operations that run
// against a live graph outside the hot query path: decay scoring, storage
// budget projection with session rollup, and redacted auto-capture of
// external prompts (spec §4.9).
package maintenance

import (
	"math"

	"github.com/agentmem/amem/graph"
)

// DefaultHalfLifeSeconds is the decay half-life applied when a DecayConfig
// is used without an explicit override: 30 days.
const DefaultHalfLifeSeconds = 30 * 24 * 60 * 60

// DecayConfig controls the read-time decay score computation. A zero or
// negative HalfLifeSeconds scores with DefaultHalfLifeSeconds.
type DecayConfig struct {
	// HalfLifeSeconds is the age at which a node's confidence contribution
	// to its decay score has fallen to half its original value, absent any
	// access-count boost.
	HalfLifeSeconds float64
}

// DefaultDecayConfig returns a DecayConfig with a 30-day half-life.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{HalfLifeSeconds: DefaultHalfLifeSeconds}
}

// Score computes a node's decay score:
//
//	decay = confidence * exp(-ln2 * ageSeconds/halfLifeSeconds) * (1 + log1p(accessCount))
//
// clamped to [0,1]. ageSeconds is nowTimestamp - node.Timestamp; negative
// ages (a node timestamped in the future) are treated as zero. Score is a
// pure read-time derivation: it is never written back to the node or the
// file (spec §4 "Decay score (derived)").
func (c DecayConfig) Score(n *graph.Node, nowTimestamp int64) float64 {
	halfLife := c.HalfLifeSeconds
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeSeconds
	}

	age := float64(nowTimestamp - n.Timestamp)
	if age < 0 {
		age = 0
	}

	recency := math.Exp(-age * math.Ln2 / halfLife)
	boost := 1 + math.Log1p(float64(n.AccessCount))
	score := float64(n.Confidence) * recency * boost

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Scores computes the decay score for every node in g as of nowTimestamp,
// indexed by node id.
func (c DecayConfig) Scores(g *graph.Graph, nowTimestamp int64) []float64 {
	nodes := g.Nodes()
	out := make([]float64, len(nodes))
	for i := range nodes {
		out[i] = c.Score(&nodes[i], nowTimestamp)
	}
	return out
}

// Stale reports whether a node's decay score as of nowTimestamp falls
// below threshold, marking it a rollup/archival candidate.
func (c DecayConfig) Stale(n *graph.Node, nowTimestamp int64, threshold float64) bool {
	return c.Score(n, nowTimestamp) < threshold
}
