package index

import (
	"fmt"
	"sort"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
)

// SessionEntry is one `(session_id, first_node, last_node)` tuple (spec
// §4.4 tag 0x02).
type SessionEntry struct {
	SessionID uint32
	FirstNode uint32
	LastNode  uint32
}

// BuildSessionRanges builds the session-range index from g, sorted by
// first node id. Ranges of sessions whose nodes were interleaved overlap.
func BuildSessionRanges(g *graph.Graph) []SessionEntry {
	ranges := g.Sessions()
	out := make([]SessionEntry, len(ranges))
	for i, r := range ranges {
		out[i] = SessionEntry{SessionID: r.SessionID, FirstNode: r.FirstNode, LastNode: r.LastNode}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstNode < out[j].FirstNode })
	return out
}

// Encode serializes entries as count:u32 followed by 12-byte tuples.
func EncodeSessionRanges(entries []SessionEntry) []byte {
	e := endian.GetLittleEndianEngine()
	out := make([]byte, 4+len(entries)*12)
	e.PutUint32(out[0:4], uint32(len(entries)))
	off := 4
	for _, s := range entries {
		e.PutUint32(out[off:off+4], s.SessionID)
		e.PutUint32(out[off+4:off+8], s.FirstNode)
		e.PutUint32(out[off+8:off+12], s.LastNode)
		off += 12
	}
	return out
}

// DecodeSessionRanges parses the payload produced by EncodeSessionRanges.
func DecodeSessionRanges(data []byte) ([]SessionEntry, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decode session ranges: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	count := int(e.Uint32(data[0:4]))
	need := 4 + count*12
	if len(data) < need {
		return nil, fmt.Errorf("decode session ranges: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	out := make([]SessionEntry, count)
	off := 4
	for i := 0; i < count; i++ {
		out[i] = SessionEntry{
			SessionID: e.Uint32(data[off : off+4]),
			FirstNode: e.Uint32(data[off+4 : off+8]),
			LastNode:  e.Uint32(data[off+8 : off+12]),
		}
		off += 12
	}
	return out, nil
}

// Lookup returns the node id range for sid, or false if the session is
// unknown. Entries are sorted by FirstNode, not SessionID, so this is a
// linear scan; session counts are small relative to node counts.
func Lookup(entries []SessionEntry, sid uint32) (SessionEntry, bool) {
	for _, e := range entries {
		if e.SessionID == sid {
			return e, true
		}
	}
	return SessionEntry{}, false
}
