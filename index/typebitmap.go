package index

import (
	"fmt"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

// numEventKinds is the number of known event kinds the bitmap reserves a
// row for (spec §6.2: fact..episode). Reserved/unknown kinds fall outside
// the bitmap and are only found via linear scan, consistent with "unknown
// variants are treated as opaque by old readers" (spec §3).
const numEventKinds = 6

// TypeBitmap is a per-event-kind bit vector, one bit per node, built from
// the graph at flush time (spec §4.4 tag 0x01).
type TypeBitmap struct {
	NodeCount int
	bits      [numEventKinds][]byte // row-major, ceil(NodeCount/8) bytes each
}

// BuildTypeBitmap builds a TypeBitmap from g.
func BuildTypeBitmap(g *graph.Graph) TypeBitmap {
	n := g.NodeCount()
	tb := TypeBitmap{NodeCount: n}
	rowBytes := (n + 7) / 8
	for k := range tb.bits {
		tb.bits[k] = make([]byte, rowBytes)
	}
	for _, node := range g.Nodes() {
		if int(node.Kind) < numEventKinds {
			setBit(tb.bits[node.Kind], int(node.ID))
		}
	}
	return tb
}

func setBit(row []byte, i int) {
	row[i/8] |= 1 << uint(i%8)
}

func getBit(row []byte, i int) bool {
	if i/8 >= len(row) {
		return false
	}
	return row[i/8]&(1<<uint(i%8)) != 0
}

// Has reports whether node id is marked under kind.
func (tb TypeBitmap) Has(kind format.EventKind, id uint32) bool {
	if int(kind) >= numEventKinds {
		return false
	}
	return getBit(tb.bits[kind], int(id))
}

// Nodes returns every node id marked under kind, ascending.
func (tb TypeBitmap) Nodes(kind format.EventKind) []uint32 {
	if int(kind) >= numEventKinds {
		return nil
	}
	var out []uint32
	for i := 0; i < tb.NodeCount; i++ {
		if getBit(tb.bits[kind], i) {
			out = append(out, uint32(i))
		}
	}
	return out
}

// Encode serializes tb as: node_count:u32, then numEventKinds rows of
// ceil(node_count/8) bytes each.
func (tb TypeBitmap) Encode() []byte {
	e := endian.GetLittleEndianEngine()
	rowBytes := (tb.NodeCount + 7) / 8
	out := make([]byte, 4+numEventKinds*rowBytes)
	e.PutUint32(out[0:4], uint32(tb.NodeCount))
	off := 4
	for k := 0; k < numEventKinds; k++ {
		copy(out[off:off+rowBytes], tb.bits[k])
		off += rowBytes
	}
	return out
}

// DecodeTypeBitmap parses the payload produced by Encode.
func DecodeTypeBitmap(data []byte) (TypeBitmap, error) {
	if len(data) < 4 {
		return TypeBitmap{}, fmt.Errorf("decode type bitmap: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	n := int(e.Uint32(data[0:4]))
	rowBytes := (n + 7) / 8
	need := 4 + numEventKinds*rowBytes
	if len(data) < need {
		return TypeBitmap{}, fmt.Errorf("decode type bitmap: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	tb := TypeBitmap{NodeCount: n}
	off := 4
	for k := 0; k < numEventKinds; k++ {
		tb.bits[k] = make([]byte, rowBytes)
		copy(tb.bits[k], data[off:off+rowBytes])
		off += rowBytes
	}
	return tb, nil
}
