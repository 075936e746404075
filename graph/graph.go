package graph

import (
	"fmt"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
)

// DefaultMaxContentLength is the content length cap applied when a Graph is
// constructed without an explicit override (spec §3 "a few kilobytes").
const DefaultMaxContentLength = 8192

// Config controls the limits a Graph enforces at its public boundary. It is
// set once at construction (spec §9 "Builder / config pattern") and never
// mutated afterward.
type Config struct {
	// Dimension is the feature vector width every node's Vector must match,
	// or be empty. Zero means the graph carries no vectors at all.
	Dimension uint16
	// MaxContentLength bounds Content in bytes (spec §3, hard max 2^32-1).
	MaxContentLength uint32
}

// Graph is the mutable, in-memory representation of a cognitive event
// graph (spec §4.2). The zero value is not usable; construct with New.
//
// Graph is not safe for concurrent mutation: callers serialize add/update
// operations with an external mutex, matching spec §4.2's "single-writer
// discipline" and §5's concurrency model. Read-only traversal of a Graph
// already built is safe for concurrent readers as long as no mutation is
// in flight.
type Graph struct {
	cfg Config

	nodes []Node
	edges []Edge

	outAdj [][]AdjRef
	inAdj  [][]AdjRef

	sessions   map[uint32]*SessionRange
	sessionIDs []uint32 // first-seen order, for deterministic iteration

	metaDirty bool // set by AddNode; nothing in this package reads it
}

// New creates an empty Graph with the given configuration.
func New(cfg Config) *Graph {
	if cfg.MaxContentLength == 0 {
		cfg.MaxContentLength = DefaultMaxContentLength
	}
	return &Graph{
		cfg:      cfg,
		sessions: make(map[uint32]*SessionRange),
	}
}

// Config returns the configuration the graph was constructed with.
func (g *Graph) Config() Config { return g.cfg }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given id, or false if it does not exist.
func (g *Graph) Node(id uint32) (*Node, bool) {
	if id >= uint32(len(g.nodes)) {
		return nil, false
	}
	return &g.nodes[id], true
}

// Nodes returns the full, ordered node table. The returned slice must not
// be mutated by the caller; it aliases the graph's storage.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the append-order edge log. The codec sorts a copy of this
// by (source, target, kind) on flush; the in-memory graph keeps append
// order so adjacency indices stay stable.
func (g *Graph) Edges() []Edge { return g.edges }

// Sessions returns every session range, ordered by first appearance.
func (g *Graph) Sessions() []SessionRange {
	out := make([]SessionRange, 0, len(g.sessionIDs))
	for _, sid := range g.sessionIDs {
		out = append(out, *g.sessions[sid])
	}
	return out
}

// AddNode appends a new node and returns its assigned id. Confidence must
// lie in [0,1], Content must not exceed the graph's configured maximum
// length, and Vector (if non-nil) must match the graph's dimension.
func (g *Graph) AddNode(kind format.EventKind, session uint32, confidence float32, timestamp int64, content string, metadata map[string]string, vector []float32) (uint32, error) {
	if confidence < 0 || confidence > 1 {
		return 0, fmt.Errorf("add node: confidence %v: %w", confidence, errs.ErrConfidenceOutOfRange)
	}
	if uint32(len(content)) > g.cfg.MaxContentLength {
		return 0, fmt.Errorf("add node: content length %d exceeds max %d: %w", len(content), g.cfg.MaxContentLength, errs.ErrContentTooLarge)
	}
	if len(vector) > 0 && g.cfg.Dimension > 0 && len(vector) != int(g.cfg.Dimension) {
		return 0, fmt.Errorf("add node: vector length %d != dimension %d: %w", len(vector), g.cfg.Dimension, errs.ErrDimensionMismatch)
	}

	id := uint32(len(g.nodes))

	var vecCopy []float32
	if len(vector) > 0 {
		vecCopy = make([]float32, len(vector))
		copy(vecCopy, vector)
	}
	var metaCopy map[string]string
	if len(metadata) > 0 {
		metaCopy = make(map[string]string, len(metadata))
		for k, v := range metadata {
			metaCopy[k] = v
		}
	}

	g.nodes = append(g.nodes, Node{
		ID:         id,
		Kind:       kind,
		Session:    session,
		Confidence: confidence,
		Timestamp:  timestamp,
		Content:    content,
		Metadata:   metaCopy,
		Vector:     vecCopy,
	})
	g.outAdj = append(g.outAdj, nil)
	g.inAdj = append(g.inAdj, nil)

	g.touchSession(session, id)
	if kind == format.EventEpisode {
		g.sessions[session].Closed = true
	}
	g.metaDirty = true

	return id, nil
}

func (g *Graph) touchSession(session, id uint32) {
	sr, ok := g.sessions[session]
	if !ok {
		sr = &SessionRange{SessionID: session, FirstNode: id, LastNode: id}
		g.sessions[session] = sr
		g.sessionIDs = append(g.sessionIDs, session)
		return
	}
	if id < sr.FirstNode {
		sr.FirstNode = id
	}
	if id > sr.LastNode {
		sr.LastNode = id
	}
}

// AddEdge validates both endpoints, the weight range, and (for supersedes
// edges) acyclicity, then appends the edge and updates adjacency.
func (g *Graph) AddEdge(source, target uint32, kind format.EdgeKind, weight float32) (uint32, error) {
	if source >= uint32(len(g.nodes)) {
		return 0, fmt.Errorf("add edge: source %d: %w", source, errs.ErrEdgeEndpointInvalid)
	}
	if target >= uint32(len(g.nodes)) {
		return 0, fmt.Errorf("add edge: target %d: %w", target, errs.ErrEdgeEndpointInvalid)
	}
	if weight < 0 || weight > 1 {
		return 0, fmt.Errorf("add edge: weight %v: %w", weight, errs.ErrWeightOutOfRange)
	}
	if kind == format.EdgeSupersedes && g.wouldCycle(source, target) {
		return 0, fmt.Errorf("add edge: %d supersedes %d: %w", source, target, errs.ErrCycle)
	}

	idx := uint32(len(g.edges))
	g.edges = append(g.edges, Edge{Source: source, Target: target, Kind: kind, Weight: weight})
	g.outAdj[source] = append(g.outAdj[source], AdjRef{Node: target, Edge: idx})
	g.inAdj[target] = append(g.inAdj[target], AdjRef{Node: source, Edge: idx})

	return idx, nil
}

// wouldCycle reports whether adding a supersedes edge source->target would
// close a cycle in the supersedes subgraph, i.e. whether target can already
// reach source by following supersedes edges forward.
func (g *Graph) wouldCycle(source, target uint32) bool {
	if source == target {
		return true
	}
	visited := make(map[uint32]bool)
	stack := []uint32{target}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == source {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, ref := range g.outAdj[n] {
			if g.edges[ref.Edge].Kind == format.EdgeSupersedes {
				stack = append(stack, ref.Node)
			}
		}
	}
	return false
}

// UpdateMetadata replaces node id's metadata map in place.
func (g *Graph) UpdateMetadata(id uint32, metadata map[string]string) error {
	if id >= uint32(len(g.nodes)) {
		return fmt.Errorf("update metadata: node %d: %w", id, errs.ErrNodeNotFound)
	}
	metaCopy := make(map[string]string, len(metadata))
	for k, v := range metadata {
		metaCopy[k] = v
	}
	g.nodes[id].Metadata = metaCopy
	return nil
}

// Outgoing returns the edge indices of node id's outgoing edges.
func (g *Graph) Outgoing(id uint32) []AdjRef {
	if id >= uint32(len(g.outAdj)) {
		return nil
	}
	return g.outAdj[id]
}

// Incoming returns the edge indices of node id's incoming edges.
func (g *Graph) Incoming(id uint32) []AdjRef {
	if id >= uint32(len(g.inAdj)) {
		return nil
	}
	return g.inAdj[id]
}

// OutgoingEdges returns the Edge values of node id's outgoing edges.
func (g *Graph) OutgoingEdges(id uint32) []Edge {
	refs := g.Outgoing(id)
	out := make([]Edge, len(refs))
	for i, r := range refs {
		out[i] = g.edges[r.Edge]
	}
	return out
}

// IncomingEdges returns the Edge values of node id's incoming edges.
func (g *Graph) IncomingEdges(id uint32) []Edge {
	refs := g.Incoming(id)
	out := make([]Edge, len(refs))
	for i, r := range refs {
		out[i] = g.edges[r.Edge]
	}
	return out
}

// Touch increments the access counter used by decay scoring. It never
// fails and never touches the wire format.
func (g *Graph) Touch(id uint32) {
	if id < uint32(len(g.nodes)) {
		g.nodes[id].AccessCount++
	}
}
