package section

import (
	"fmt"
	"math"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
)

// EdgeRecord is the fixed 13-byte on-disk representation of one edge
// (spec §6.1). Records are packed with no padding between them.
type EdgeRecord struct {
	Source   uint32
	Target   uint32
	EdgeKind uint8
	Weight   float32
}

// Bytes encodes r into a 13-byte little-endian buffer.
func (r EdgeRecord) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, EdgeRecordSize)

	e.PutUint32(b[0:4], r.Source)
	e.PutUint32(b[4:8], r.Target)
	b[8] = r.EdgeKind
	e.PutUint32(b[9:13], math.Float32bits(r.Weight))

	return b
}

// ParseEdgeRecord decodes one 13-byte edge record from data.
func ParseEdgeRecord(data []byte) (EdgeRecord, error) {
	if len(data) < EdgeRecordSize {
		return EdgeRecord{}, fmt.Errorf("parse edge record: need %d bytes, got %d: %w", EdgeRecordSize, len(data), errs.ErrInvalidEdgeRecord)
	}

	e := endian.GetLittleEndianEngine()
	return EdgeRecord{
		Source:   e.Uint32(data[0:4]),
		Target:   e.Uint32(data[4:8]),
		EdgeKind: data[8],
		Weight:   math.Float32frombits(e.Uint32(data[9:13])),
	}, nil
}
