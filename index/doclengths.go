package index

import (
	"fmt"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/internal/tokenize"
)

// BuildDocLengths tokenizes every node's content and returns its token
// count, indexed by node id (spec §4.4 tag 0x06, used for BM25 normalization).
func BuildDocLengths(g *graph.Graph) []uint32 {
	nodes := g.Nodes()
	out := make([]uint32, len(nodes))
	for _, n := range nodes {
		out[n.ID] = uint32(len(tokenize.Tokens(n.Content)))
	}
	return out
}

// EncodeDocLengths serializes lengths as count:u32 followed by count uint32s.
func EncodeDocLengths(lengths []uint32) []byte {
	e := endian.GetLittleEndianEngine()
	out := make([]byte, 4+len(lengths)*4)
	e.PutUint32(out[0:4], uint32(len(lengths)))
	off := 4
	for _, l := range lengths {
		e.PutUint32(out[off:off+4], l)
		off += 4
	}
	return out
}

// DecodeDocLengths parses the payload produced by EncodeDocLengths.
func DecodeDocLengths(data []byte) ([]uint32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decode doc lengths: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	count := int(e.Uint32(data[0:4]))
	need := 4 + count*4
	if len(data) < need {
		return nil, fmt.Errorf("decode doc lengths: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	out := make([]uint32, count)
	off := 4
	for i := 0; i < count; i++ {
		out[i] = e.Uint32(data[off : off+4])
		off += 4
	}
	return out, nil
}

// AverageLength returns the mean of lengths, or 0 for an empty slice.
func AverageLength(lengths []uint32) float64 {
	if len(lengths) == 0 {
		return 0
	}
	var sum uint64
	for _, l := range lengths {
		sum += uint64(l)
	}
	return float64(sum) / float64(len(lengths))
}
