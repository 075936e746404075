package graph

// SessionRange records the lowest and highest node ids of one session: a
// session is created implicitly on the first node added with a new id, and
// every later node added to that session extends LastNode monotonically,
// because node ids are assigned by a strict monotonic counter (spec §4.2
// "Ordering"). Adding nodes does not keep sessions contiguous: when nodes
// of different sessions are interleaved, ids of other sessions fall inside
// [FirstNode, LastNode].
type SessionRange struct {
	SessionID uint32
	FirstNode uint32
	LastNode  uint32
	Closed    bool // set when a summary episode node has been written for this session
}
