package query

import (
	"math"
	"sort"

	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

// DefaultRevisionDepth and DefaultRevisionThreshold are counterfactual
// revision's defaults (spec §4.8).
const (
	DefaultRevisionDepth     = 4
	DefaultRevisionThreshold = 0.5
)

// Revision is one node's outcome under a counterfactual retraction.
type Revision struct {
	NodeID        uint32
	NewConfidence float32
	Unsupported   bool
}

// Revise computes, for every node reachable from target via outgoing
// supports/caused-by edges within depth, the confidence it would retain if
// target were retracted. The graph itself is never mutated.
func Revise(g *graph.Graph, target uint32, depth int, threshold float32) []Revision {
	if depth <= 0 {
		depth = DefaultRevisionDepth
	}
	if threshold <= 0 {
		threshold = DefaultRevisionThreshold
	}

	reduction := make(map[uint32]float32)
	visited := map[uint32]bool{target: true}
	type frontierEntry struct {
		id         uint32
		sourceConf float32
	}
	frontier := []frontierEntry{{id: target, sourceConf: confidenceOf(g, target)}}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []frontierEntry
		for _, fe := range frontier {
			for _, ref := range g.Outgoing(fe.id) {
				e := g.Edges()[ref.Edge]
				if e.Kind != format.EdgeSupports && e.Kind != format.EdgeCausedBy {
					continue
				}
				cut := e.Weight * fe.sourceConf
				reduction[ref.Node] += cut
				if !visited[ref.Node] {
					visited[ref.Node] = true
					next = append(next, frontierEntry{id: ref.Node, sourceConf: confidenceOf(g, ref.Node)})
				}
			}
		}
		frontier = next
	}

	ids := make([]uint32, 0, len(reduction))
	for id := range reduction {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Revision, 0, len(ids))
	for _, id := range ids {
		newConf := confidenceOf(g, id) - reduction[id]
		if newConf < 0 {
			newConf = 0
		}
		out = append(out, Revision{NodeID: id, NewConfidence: newConf, Unsupported: newConf < threshold})
	}
	return out
}

func confidenceOf(g *graph.Graph, id uint32) float32 {
	n, ok := g.Node(id)
	if !ok {
		return 0
	}
	return n.Confidence
}

// GapCategory identifies one of the five reasoning-gap kinds (spec §4.8).
type GapCategory int

const (
	GapUnjustifiedDecision GapCategory = iota
	GapSingleSourceInference
	GapLowConfidenceFoundation
	GapUnstableKnowledge
	GapStaleEvidence
)

// Gap is one detected reasoning gap with its severity score.
type Gap struct {
	Category GapCategory
	NodeID   uint32
	Other    uint32 // second endpoint, used by GapUnstableKnowledge; zero otherwise
	Severity float64
}

// staleEvidenceThreshold is the default decay-score cutoff for category (e).
const staleEvidenceThreshold = 0.3

// Gaps detects every reasoning gap category across the graph.
func Gaps(g *graph.Graph, decayOf func(uint32) float64) []Gap {
	var gaps []Gap

	for _, n := range g.Nodes() {
		switch n.Kind {
		case format.EventDecision:
			if !hasIncomingOfKinds(g, n.ID, format.EdgeSupports, format.EdgeCausedBy) {
				gaps = append(gaps, Gap{
					Category: GapUnjustifiedDecision,
					NodeID:   n.ID,
					Severity: severity(n.Confidence, len(g.Outgoing(n.ID)), 0),
				})
			}
		case format.EventInference:
			if countIncomingOfKind(g, n.ID, format.EdgeSupports) == 1 {
				gaps = append(gaps, Gap{
					Category: GapSingleSourceInference,
					NodeID:   n.ID,
					Severity: severity(n.Confidence, len(g.Outgoing(n.ID)), 0),
				})
			}
		case format.EventFact:
			if n.Confidence < 0.5 && countOutgoingOfKind(g, n.ID, format.EdgeSupports) > 0 {
				gaps = append(gaps, Gap{
					Category: GapLowConfidenceFoundation,
					NodeID:   n.ID,
					Severity: severity(n.Confidence, len(g.Outgoing(n.ID)), 0),
				})
			}
		}
	}

	for _, e := range g.Edges() {
		if e.Kind != format.EdgeContradicts {
			continue
		}
		if !hasSubsequentCorrection(g, e.Source, e.Target) {
			src, _ := g.Node(e.Source)
			gaps = append(gaps, Gap{
				Category: GapUnstableKnowledge,
				NodeID:   e.Source,
				Other:    e.Target,
				Severity: severity(src.Confidence, len(g.Outgoing(e.Source)), 0),
			})
		}
	}

	if decayOf != nil {
		for _, n := range g.Nodes() {
			if decayOf(n.ID) >= staleEvidenceThreshold {
				continue
			}
			if supportsActiveDecision(g, n.ID) {
				gaps = append(gaps, Gap{
					Category: GapStaleEvidence,
					NodeID:   n.ID,
					Severity: severity(n.Confidence, len(g.Outgoing(n.ID)), 0),
				})
			}
		}
	}

	return gaps
}

func hasIncomingOfKinds(g *graph.Graph, id uint32, kinds ...format.EdgeKind) bool {
	for _, ref := range g.Incoming(id) {
		k := g.Edges()[ref.Edge].Kind
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
	}
	return false
}

func countIncomingOfKind(g *graph.Graph, id uint32, kind format.EdgeKind) int {
	count := 0
	for _, ref := range g.Incoming(id) {
		if g.Edges()[ref.Edge].Kind == kind {
			count++
		}
	}
	return count
}

func countOutgoingOfKind(g *graph.Graph, id uint32, kind format.EdgeKind) int {
	count := 0
	for _, ref := range g.Outgoing(id) {
		if g.Edges()[ref.Edge].Kind == kind {
			count++
		}
	}
	return count
}

// hasSubsequentCorrection reports whether a or b has an outgoing edge to a
// correction-kind node created after the contradiction (approximated here
// as any outgoing edge to a correction node, since edge records carry no
// timestamp of their own).
func hasSubsequentCorrection(g *graph.Graph, a, b uint32) bool {
	for _, id := range [2]uint32{a, b} {
		for _, ref := range g.Outgoing(id) {
			if n, ok := g.Node(ref.Node); ok && n.Kind == format.EventCorrection {
				return true
			}
		}
	}
	return false
}

func supportsActiveDecision(g *graph.Graph, id uint32) bool {
	for _, ref := range g.Outgoing(id) {
		if g.Edges()[ref.Edge].Kind != format.EdgeSupports {
			continue
		}
		if n, ok := g.Node(ref.Node); ok && n.Kind == format.EventDecision {
			return true
		}
	}
	return false
}

// severity combines a gap-bearing node's confidence, outdegree, and (stubbed
// here; centrality of dependents is supplied by callers that have already
// computed it) into one score. Lower confidence, higher outdegree, and
// higher dependent centrality raise severity.
func severity(confidence float32, outdegree int, dependentCentrality float64) float64 {
	return (1 - float64(confidence)) * (1 + math.Log1p(float64(outdegree))) * (1 + dependentCentrality)
}

// Fingerprint is a probe node's structural signature (spec §4.8 "Analogical
// match").
type Fingerprint struct {
	InDegree        int
	OutDegree       int
	KindHistogram   [7]int // indexed by format.EdgeKind
	ClusteringCoeff float64
}

// BuildFingerprint computes node id's structural fingerprint.
func BuildFingerprint(g *graph.Graph, id uint32) Fingerprint {
	fp := Fingerprint{
		InDegree:  len(g.Incoming(id)),
		OutDegree: len(g.Outgoing(id)),
	}
	for _, ref := range g.Outgoing(id) {
		if k := g.Edges()[ref.Edge].Kind; int(k) < len(fp.KindHistogram) {
			fp.KindHistogram[k]++
		}
	}
	for _, ref := range g.Incoming(id) {
		if k := g.Edges()[ref.Edge].Kind; int(k) < len(fp.KindHistogram) {
			fp.KindHistogram[k]++
		}
	}
	fp.ClusteringCoeff = localClusteringCoefficient(g, id)
	return fp
}

// localClusteringCoefficient returns the fraction of pairs of id's
// neighbors (treating edges as undirected) that are themselves connected.
func localClusteringCoefficient(g *graph.Graph, id uint32) float64 {
	neighborSet := map[uint32]bool{}
	for _, ref := range g.Outgoing(id) {
		neighborSet[ref.Node] = true
	}
	for _, ref := range g.Incoming(id) {
		neighborSet[ref.Node] = true
	}
	neighbors := make([]uint32, 0, len(neighborSet))
	for n := range neighborSet {
		neighbors = append(neighbors, n)
	}
	k := len(neighbors)
	if k < 2 {
		return 0
	}

	links := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if connected(g, neighbors[i], neighbors[j]) {
				links++
			}
		}
	}
	possible := k * (k - 1) / 2
	return float64(links) / float64(possible)
}

func connected(g *graph.Graph, a, b uint32) bool {
	for _, ref := range g.Outgoing(a) {
		if ref.Node == b {
			return true
		}
	}
	for _, ref := range g.Outgoing(b) {
		if ref.Node == a {
			return true
		}
	}
	return false
}

// fingerprintVector standardizes a fingerprint into a flat feature vector
// for L2 distance, in a fixed, documented field order.
func fingerprintVector(fp Fingerprint) []float64 {
	out := make([]float64, 0, 3+len(fp.KindHistogram))
	out = append(out, float64(fp.InDegree), float64(fp.OutDegree), fp.ClusteringCoeff)
	for _, c := range fp.KindHistogram {
		out = append(out, float64(c))
	}
	return out
}

func l2Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// DefaultAnalogyAlpha weights fingerprint similarity vs. content cosine
// similarity in Analogy's convex combination (spec §4.8).
const DefaultAnalogyAlpha = 0.5

// Analogy ranks every node other than probe by a convex combination of
// structural fingerprint similarity and content-vector cosine similarity.
func Analogy(g *graph.Graph, probe uint32, k int, alpha float64) []Scored {
	if alpha <= 0 {
		alpha = DefaultAnalogyAlpha
	}
	probeFP := fingerprintVector(BuildFingerprint(g, probe))
	probeNode, _ := g.Node(probe)

	// Standardize fingerprint vectors across the whole graph (zero mean,
	// unit variance per dimension) so no single raw count dominates the
	// L2 distance.
	allFPs := make(map[uint32][]float64, g.NodeCount())
	for _, n := range g.Nodes() {
		allFPs[n.ID] = fingerprintVector(BuildFingerprint(g, n.ID))
	}
	standardize(allFPs)

	var out []Scored
	for _, n := range g.Nodes() {
		if n.ID == probe {
			continue
		}
		structDist := l2Distance(allFPs[probe], allFPs[n.ID])
		structSim := 1 / (1 + structDist)

		contentSim := 0.0
		if probeNode != nil && probeNode.HasVector() && n.HasVector() {
			contentSim = cosine(probeNode.Vector, n.Vector)
		}

		score := alpha*structSim + (1-alpha)*contentSim
		out = append(out, Scored{NodeID: n.ID, Score: score})
	}
	sortScoredDesc(out)
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

func standardize(vecs map[uint32][]float64) {
	if len(vecs) == 0 {
		return
	}
	dim := 0
	for _, v := range vecs {
		dim = len(v)
		break
	}
	mean := make([]float64, dim)
	for _, v := range vecs {
		for i, x := range v {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vecs))
	}
	variance := make([]float64, dim)
	for _, v := range vecs {
		for i, x := range v {
			d := x - mean[i]
			variance[i] += d * d
		}
	}
	std := make([]float64, dim)
	for i := range std {
		std[i] = math.Sqrt(variance[i] / float64(len(vecs)))
		if std[i] == 0 {
			std[i] = 1
		}
	}
	for _, v := range vecs {
		for i := range v {
			v[i] = (v[i] - mean[i]) / std[i]
		}
	}
}

// DriftChain is one maximal supersedes chain's analysis.
type DriftChain struct {
	NodeIDs              []uint32
	Confidences          []float32
	MeanRevisionInterval float64
	StabilityScore       float64
}

// Drift analyzes every maximal supersedes chain in the graph: a chain is
// rooted at a node with no incoming supersedes edge and followed forward
// until a terminal node.
func Drift(g *graph.Graph) []DriftChain {
	hasIncomingSupersedes := make(map[uint32]bool)
	for _, e := range g.Edges() {
		if e.Kind == format.EdgeSupersedes {
			hasIncomingSupersedes[e.Target] = true
		}
	}

	var chains []DriftChain
	for _, n := range g.Nodes() {
		if hasIncomingSupersedes[n.ID] {
			continue
		}
		if !hasOutgoingSupersedes(g, n.ID) {
			continue // isolated node, not a chain
		}
		res, err := Resolve(g, n.ID)
		if err != nil {
			continue // malformed supersedes cycle, not a valid chain
		}
		chains = append(chains, buildDriftChain(g, res.Chain))
	}
	return chains
}

func hasOutgoingSupersedes(g *graph.Graph, id uint32) bool {
	for _, ref := range g.Outgoing(id) {
		if g.Edges()[ref.Edge].Kind == format.EdgeSupersedes {
			return true
		}
	}
	return false
}

func buildDriftChain(g *graph.Graph, ids []uint32) DriftChain {
	confidences := make([]float32, len(ids))
	timestamps := make([]int64, len(ids))
	for i, id := range ids {
		n, _ := g.Node(id)
		confidences[i] = n.Confidence
		timestamps[i] = n.Timestamp
	}

	revisionCount := len(ids) - 1
	var meanInterval float64
	if revisionCount > 0 {
		// ids is ordered newest-first (resolve() walks from the chain's
		// root outward along supersedes edges); intervals are reported in
		// elapsed-time terms regardless of walk direction.
		var total int64
		for i := 1; i < len(timestamps); i++ {
			d := timestamps[i-1] - timestamps[i]
			if d < 0 {
				d = -d
			}
			total += d
		}
		meanInterval = float64(total) / float64(revisionCount)
	}

	return DriftChain{
		NodeIDs:              ids,
		Confidences:          confidences,
		MeanRevisionInterval: meanInterval,
		StabilityScore:       1 / (1 + float64(revisionCount)),
	}
}

// ConsolidationReport is consolidate()'s dry-run output (spec §4.8).
type ConsolidationReport struct {
	Duplicates             [][2]uint32
	UnlinkedContradictions [][2]uint32
	PromotableInferences   []uint32
	Orphans                []uint32
}

// ConsolidationThresholds controls consolidate()'s cutoffs.
type ConsolidationThresholds struct {
	DuplicateCosine             float64 // default 0.95
	ContradictionSimilarity     float64 // default 0.85
	ContradictionConfidenceGap  float32 // default 0.3
	PromotionMinSupports        int     // default 3
	PromotionMinConfidence      float32 // default 0.85
	OrphanAgeThreshold          int64   // in the same unit as node Timestamp
}

// DefaultConsolidationThresholds returns the thresholds named in spec §4.8.
func DefaultConsolidationThresholds() ConsolidationThresholds {
	return ConsolidationThresholds{
		DuplicateCosine:             0.95,
		ContradictionSimilarity:     0.85,
		ContradictionConfidenceGap:  0.3,
		PromotionMinSupports:        3,
		PromotionMinConfidence:      0.85,
		OrphanAgeThreshold:          0,
	}
}

// Consolidate produces a dry-run report; applying it is a distinct
// operation that the maintenance package performs against a file.
func Consolidate(g *graph.Graph, nowTimestamp int64, th ConsolidationThresholds) ConsolidationReport {
	if th == (ConsolidationThresholds{}) {
		th = DefaultConsolidationThresholds()
	}
	nodes := g.Nodes()
	var report ConsolidationReport

	for i := 0; i < len(nodes); i++ {
		a := &nodes[i]
		if !a.HasVector() {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			if !b.HasVector() || a.Kind != b.Kind {
				continue
			}
			if cosine(a.Vector, b.Vector) > th.DuplicateCosine {
				report.Duplicates = append(report.Duplicates, [2]uint32{a.ID, b.ID})
			}
		}
	}

	for i := 0; i < len(nodes); i++ {
		a := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			if a.Session != b.Session {
				continue
			}
			if !a.HasVector() || !b.HasVector() {
				continue
			}
			sim := cosine(a.Vector, b.Vector)
			gap := a.Confidence - b.Confidence
			if gap < 0 {
				gap = -gap
			}
			if sim > th.ContradictionSimilarity && gap > th.ContradictionConfidenceGap {
				report.UnlinkedContradictions = append(report.UnlinkedContradictions, [2]uint32{a.ID, b.ID})
			}
		}
	}

	for _, n := range nodes {
		if n.Kind != format.EventInference {
			continue
		}
		if countIncomingOfKind(g, n.ID, format.EdgeSupports) >= th.PromotionMinSupports && n.Confidence >= th.PromotionMinConfidence {
			report.PromotableInferences = append(report.PromotableInferences, n.ID)
		}
	}

	for _, n := range nodes {
		if len(g.Outgoing(n.ID)) > 0 || len(g.Incoming(n.ID)) > 0 {
			continue
		}
		if nowTimestamp-n.Timestamp > th.OrphanAgeThreshold {
			report.Orphans = append(report.Orphans, n.ID)
		}
	}

	return report
}
