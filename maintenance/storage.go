package maintenance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

// DefaultRollupFraction is the fraction of the storage target at which
// projected growth triggers rollup (spec §4.9 "default 0.85").
const DefaultRollupFraction = 0.85

// BudgetConfig controls storage-budget projection.
type BudgetConfig struct {
	// TargetBytes is the storage ceiling the projection is measured against.
	TargetBytes int64
	// HorizonDays is how far forward projection runs.
	HorizonDays int
	// RollupFraction is the fraction of TargetBytes above which rollup is
	// recommended. Zero means DefaultRollupFraction.
	RollupFraction float64
}

// BudgetProjection is the result of projecting linear growth from an
// observed daily mutation rate.
type BudgetProjection struct {
	CurrentBytes      int64
	ProjectedBytes    int64
	TargetBytes       int64
	ShouldRollup      bool
	DailyGrowthBytes  int64
}

// Project linearly extrapolates currentBytes forward by cfg.HorizonDays at
// dailyGrowthBytes per day and compares the result against
// cfg.RollupFraction of cfg.TargetBytes.
func (cfg BudgetConfig) Project(currentBytes, dailyGrowthBytes int64) BudgetProjection {
	fraction := cfg.RollupFraction
	if fraction <= 0 {
		fraction = DefaultRollupFraction
	}
	projected := currentBytes + dailyGrowthBytes*int64(cfg.HorizonDays)
	threshold := int64(float64(cfg.TargetBytes) * fraction)
	return BudgetProjection{
		CurrentBytes:     currentBytes,
		ProjectedBytes:   projected,
		TargetBytes:      cfg.TargetBytes,
		ShouldRollup:     cfg.TargetBytes > 0 && projected > threshold,
		DailyGrowthBytes: dailyGrowthBytes,
	}
}

// RollupResult describes one session's consolidation into an episode node.
type RollupResult struct {
	SessionID   uint32
	EpisodeNode uint32
	Linked      []uint32 // constituent nodes given a part-of edge to EpisodeNode
	Dropped     []uint32 // constituent nodes with outdegree zero, left unlinked
}

// RollupSessions scans every closed session older than ageThreshold
// (measured against node timestamps, in the same unit nowTimestamp uses)
// and replaces it with a single episode node summarizing its members.
// A session is eligible only if SessionRange.Closed is true (spec §4.9
// "sessions ... marked completed"). Constituent nodes with nonzero
// outdegree are linked to the new episode node via an EdgePartOf edge;
// nodes with zero outdegree carry no forward impact and are left
// unlinked, since the graph has no node-deletion primitive and the
// summary already absorbs their content (spec §4.9 "preserved as
// part-of children unless their outdegree is zero").
func RollupSessions(g *graph.Graph, nowTimestamp int64, ageThreshold int64) ([]RollupResult, error) {
	var results []RollupResult
	for _, sr := range g.Sessions() {
		if !sr.Closed {
			continue
		}
		last, ok := g.Node(sr.LastNode)
		if !ok {
			continue
		}
		if nowTimestamp-last.Timestamp < ageThreshold {
			continue
		}

		members := sessionMembers(g, sr.SessionID)
		if len(members) == 0 {
			continue
		}

		summary := summarizeSession(g, members)
		episodeID, err := g.AddNode(format.EventEpisode, sr.SessionID, averageConfidence(g, members), last.Timestamp, summary, nil, nil)
		if err != nil {
			return results, fmt.Errorf("maintenance: rollup session %d: %w", sr.SessionID, err)
		}

		res := RollupResult{SessionID: sr.SessionID, EpisodeNode: episodeID}
		for _, id := range members {
			if len(g.Outgoing(id)) == 0 {
				res.Dropped = append(res.Dropped, id)
				continue
			}
			if _, err := g.AddEdge(id, episodeID, format.EdgePartOf, 1.0); err != nil {
				return results, fmt.Errorf("maintenance: link %d to episode %d: %w", id, episodeID, err)
			}
			res.Linked = append(res.Linked, id)
		}
		results = append(results, res)
	}
	return results, nil
}

func sessionMembers(g *graph.Graph, session uint32) []uint32 {
	var out []uint32
	for _, n := range g.Nodes() {
		if n.Session == session {
			out = append(out, n.ID)
		}
	}
	return out
}

func averageConfidence(g *graph.Graph, members []uint32) float32 {
	if len(members) == 0 {
		return 0
	}
	var sum float32
	for _, id := range members {
		if n, ok := g.Node(id); ok {
			sum += n.Confidence
		}
	}
	return sum / float32(len(members))
}

// summarizeSession builds a structured textual summary from the kinds and
// content of a session's member nodes, ordered by node id.
func summarizeSession(g *graph.Graph, members []uint32) string {
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	counts := make(map[format.EventKind]int)
	var b strings.Builder
	for i, id := range members {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		counts[n.Kind]++
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(n.Kind.String())
		b.WriteString(": ")
		b.WriteString(n.Content)
	}

	var header strings.Builder
	header.WriteString(fmt.Sprintf("session summary (%d nodes", len(members)))
	kinds := make([]format.EventKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		header.WriteString(fmt.Sprintf(", %d %s", counts[k], k.String()))
	}
	header.WriteString("): ")

	return header.String() + b.String()
}
