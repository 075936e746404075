package section

import (
	"fmt"
	"math"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
)

// NodeRecord is the fixed 64-byte on-disk representation of one node
// (spec §6.1). Content, metadata, and vector payloads live in the shared
// content and vector blocks; this record stores only offsets/lengths.
type NodeRecord struct {
	EventKind      uint8
	Session        uint32
	Confidence     float32
	Timestamp      int64
	ContentOffset  uint64
	ContentLength  uint32
	VectorOffset   uint64 // NoVector sentinel when absent
	MetadataOffset uint64 // NoMetadata sentinel when absent
	MetadataLength uint32
}

// Bytes encodes r into a 64-byte little-endian buffer.
func (r NodeRecord) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, NodeRecordSize)

	b[0] = r.EventKind
	// b[1:4] reserved/padding, stays zero.
	e.PutUint32(b[4:8], r.Session)
	e.PutUint32(b[8:12], math.Float32bits(r.Confidence))
	e.PutUint64(b[12:20], uint64(r.Timestamp))
	e.PutUint64(b[20:28], r.ContentOffset)
	e.PutUint32(b[28:32], r.ContentLength)
	e.PutUint64(b[32:40], r.VectorOffset)
	e.PutUint64(b[40:48], r.MetadataOffset)
	e.PutUint32(b[48:52], r.MetadataLength)
	// b[52:64] reserved, stays zero.

	return b
}

// ParseNodeRecord decodes one 64-byte node record from data.
func ParseNodeRecord(data []byte) (NodeRecord, error) {
	if len(data) < NodeRecordSize {
		return NodeRecord{}, fmt.Errorf("parse node record: need %d bytes, got %d: %w", NodeRecordSize, len(data), errs.ErrInvalidNodeRecord)
	}

	e := endian.GetLittleEndianEngine()
	return NodeRecord{
		EventKind:      data[0],
		Session:        e.Uint32(data[4:8]),
		Confidence:     math.Float32frombits(e.Uint32(data[8:12])),
		Timestamp:      int64(e.Uint64(data[12:20])),
		ContentOffset:  e.Uint64(data[20:28]),
		ContentLength:  e.Uint32(data[28:32]),
		VectorOffset:   e.Uint64(data[32:40]),
		MetadataOffset: e.Uint64(data[40:48]),
		MetadataLength: e.Uint32(data[48:52]),
	}, nil
}

// HasVector reports whether the record has a vector slot.
func (r NodeRecord) HasVector() bool { return r.VectorOffset != NoVector }

// HasMetadata reports whether the record has a metadata slot.
func (r NodeRecord) HasMetadata() bool { return r.MetadataOffset != NoMetadata }
