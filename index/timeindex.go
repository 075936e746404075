package index

import (
	"fmt"
	"sort"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
)

// TimeEntry is one `(timestamp, node_id)` tuple of the time index (spec
// §4.4 tag 0x03), sorted ascending by timestamp.
type TimeEntry struct {
	Timestamp int64
	NodeID    uint32
}

// BuildTimeIndex builds the time index from g, sorted by timestamp
// ascending, ties broken by node id for determinism.
func BuildTimeIndex(g *graph.Graph) []TimeEntry {
	nodes := g.Nodes()
	out := make([]TimeEntry, len(nodes))
	for i, n := range nodes {
		out[i] = TimeEntry{Timestamp: n.Timestamp, NodeID: n.ID}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out
}

// EncodeTimeIndex serializes entries as count:u32 followed by 12-byte tuples.
func EncodeTimeIndex(entries []TimeEntry) []byte {
	e := endian.GetLittleEndianEngine()
	out := make([]byte, 4+len(entries)*12)
	e.PutUint32(out[0:4], uint32(len(entries)))
	off := 4
	for _, t := range entries {
		e.PutUint64(out[off:off+8], uint64(t.Timestamp))
		e.PutUint32(out[off+8:off+12], t.NodeID)
		off += 12
	}
	return out
}

// DecodeTimeIndex parses the payload produced by EncodeTimeIndex.
func DecodeTimeIndex(data []byte) ([]TimeEntry, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decode time index: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	count := int(e.Uint32(data[0:4]))
	need := 4 + count*12
	if len(data) < need {
		return nil, fmt.Errorf("decode time index: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	out := make([]TimeEntry, count)
	off := 4
	for i := 0; i < count; i++ {
		out[i] = TimeEntry{
			Timestamp: int64(e.Uint64(data[off : off+8])),
			NodeID:    e.Uint32(data[off+8 : off+12]),
		}
		off += 12
	}
	return out, nil
}

// Range returns every node id whose timestamp lies in [lo, hi].
func Range(entries []TimeEntry, lo, hi int64) []uint32 {
	start := sort.Search(len(entries), func(i int) bool { return entries[i].Timestamp >= lo })
	var out []uint32
	for i := start; i < len(entries) && entries[i].Timestamp <= hi; i++ {
		out = append(out, entries[i].NodeID)
	}
	return out
}
