package section

import (
	"fmt"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
)

// Header is the 64-byte region at offset 0 of an amem file (spec §6.1).
type Header struct {
	Version             uint16
	Flags               uint16
	NodeCount           uint32
	EdgeCount           uint32
	Dimension           uint16
	SessionCount        uint16
	ContentOffset       uint64
	ContentLength       uint64
	VectorOffset        uint64
	IndexOffset         uint64
	ContentUncompressed uint32
}

// HasVectors reports whether the vector block is present.
func (h Header) HasVectors() bool { return h.Flags&format.FlagHasVectors != 0 }

// HasIndexes reports whether the index block is present.
func (h Header) HasIndexes() bool { return h.Flags&format.FlagHasIndexes != 0 }

// ContentCompressed reports whether the content block is LZ4-framed.
func (h Header) ContentCompressed() bool { return h.Flags&format.FlagContentCompressed != 0 }

// Bytes encodes h into a 64-byte little-endian buffer matching spec §6.1.
func (h Header) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, HeaderSize)

	copy(b[0:4], format.Magic[:])
	e.PutUint16(b[4:6], h.Version)
	e.PutUint16(b[6:8], h.Flags)
	e.PutUint32(b[8:12], h.NodeCount)
	e.PutUint32(b[12:16], h.EdgeCount)
	e.PutUint16(b[16:18], h.Dimension)
	e.PutUint16(b[18:20], h.SessionCount)
	e.PutUint64(b[20:28], h.ContentOffset)
	e.PutUint64(b[28:36], h.ContentLength)
	e.PutUint64(b[36:44], h.VectorOffset)
	e.PutUint64(b[44:52], h.IndexOffset)
	e.PutUint32(b[52:56], h.ContentUncompressed)
	// b[56:64] stays zero: reserved.

	return b
}

// ParseHeader validates the magic, reserved bytes, and version, then
// decodes the remaining fields. It does not validate section offsets
// against the file's total length; callers check that separately once
// the file size is known (distinguishing version-unsupported from
// truncated, per spec §7).
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("parse header: need %d bytes, got %d: %w", HeaderSize, len(data), errs.ErrInvalidHeaderSize)
	}

	if data[0] != format.Magic[0] || data[1] != format.Magic[1] || data[2] != format.Magic[2] || data[3] != format.Magic[3] {
		return Header{}, fmt.Errorf("parse header: bytes %v: %w", data[0:4], errs.ErrInvalidMagicNumber)
	}

	for i := 56; i < HeaderSize; i++ {
		if data[i] != 0 {
			return Header{}, fmt.Errorf("parse header: byte %d: %w", i, errs.ErrReservedBytesNonZero)
		}
	}

	e := endian.GetLittleEndianEngine()
	h := Header{
		Version:             e.Uint16(data[4:6]),
		Flags:               e.Uint16(data[6:8]),
		NodeCount:           e.Uint32(data[8:12]),
		EdgeCount:           e.Uint32(data[12:16]),
		Dimension:           e.Uint16(data[16:18]),
		SessionCount:        e.Uint16(data[18:20]),
		ContentOffset:       e.Uint64(data[20:28]),
		ContentLength:       e.Uint64(data[28:36]),
		VectorOffset:        e.Uint64(data[36:44]),
		IndexOffset:         e.Uint64(data[44:52]),
		ContentUncompressed: e.Uint32(data[52:56]),
	}

	if h.Version > format.CurrentVersion {
		return Header{}, fmt.Errorf("parse header: version %d > %d: %w", h.Version, format.CurrentVersion, errs.ErrVersionUnsupported)
	}

	return h, nil
}
