// Package graph implements the mutable, in-memory representation of a
// cognitive event graph: an append-only node table, outgoing/incoming
// adjacency lists, a session registry, and a shared metadata arena (spec
// §4.2). It is the source of truth during writes; the codec package
// serializes it and the mmapreader package exposes a read-only view over
// the serialized form using the same ids.
package graph

import "github.com/agentmem/amem/format"

// Node is one cognitive event. Ids are assigned by the owning Graph in
// creation order and are immutable once assigned (spec §3 invariant 1).
type Node struct {
	ID         uint32
	Kind       format.EventKind
	Session    uint32
	Confidence float32
	Timestamp  int64
	Content    string
	Metadata   map[string]string
	Vector     []float32 // nil when the node has no feature vector

	// AccessCount is a process-lifetime counter incremented by read
	// operations that materialize this node (Get, Similar, TextSearch
	// result inclusion). It is not part of the wire format (§6.1's node
	// record has no such field) and resets on reopen; it feeds the decay
	// score computation only.
	AccessCount uint32
}

// HasVector reports whether n carries a feature vector.
func (n *Node) HasVector() bool {
	return len(n.Vector) > 0
}
