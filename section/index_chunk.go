package section

import (
	"fmt"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
)

// chunkHeaderSize is the byte length of one index chunk's tag+length prefix.
const chunkHeaderSize = 8

// IndexChunk is one `{tag:u32, length:u32, payload}` region of the trailing
// index block (spec §4.4, §6.1).
type IndexChunk struct {
	Tag     format.IndexTag
	Payload []byte
}

// EncodeIndexChunks concatenates chunks into the index block byte layout.
func EncodeIndexChunks(chunks []IndexChunk) []byte {
	e := endian.GetLittleEndianEngine()

	total := 0
	for _, c := range chunks {
		total += chunkHeaderSize + len(c.Payload)
	}

	out := make([]byte, 0, total)
	for _, c := range chunks {
		hdr := make([]byte, chunkHeaderSize)
		e.PutUint32(hdr[0:4], uint32(c.Tag))
		e.PutUint32(hdr[4:8], uint32(len(c.Payload)))
		out = append(out, hdr...)
		out = append(out, c.Payload...)
	}

	return out
}

// DecodeIndexChunks iterates the index block, returning every chunk found.
// Chunks with tags this version does not recognize are still returned
// (callers decide whether to use them); readers that don't understand a
// tag simply skip its payload via its declared length (spec §4.1, §4.4).
func DecodeIndexChunks(data []byte) ([]IndexChunk, error) {
	var chunks []IndexChunk

	off := 0
	for off < len(data) {
		if off+chunkHeaderSize > len(data) {
			return nil, fmt.Errorf("decode index chunks: truncated chunk header at %d: %w", off, errs.ErrInvalidIndexChunk)
		}
		e := endian.GetLittleEndianEngine()
		tag := format.IndexTag(e.Uint32(data[off : off+4]))
		length := e.Uint32(data[off+4 : off+8])
		off += chunkHeaderSize

		if uint64(off)+uint64(length) > uint64(len(data)) {
			return nil, fmt.Errorf("decode index chunks: chunk tag %#x length %d overruns block: %w", tag, length, errs.ErrInvalidIndexChunk)
		}

		payload := data[off : off+int(length)]
		chunks = append(chunks, IndexChunk{Tag: tag, Payload: payload})
		off += int(length)
	}

	return chunks, nil
}

// Find returns the first chunk with the given tag, or false if absent.
func Find(chunks []IndexChunk, tag format.IndexTag) (IndexChunk, bool) {
	for _, c := range chunks {
		if c.Tag == tag {
			return c, true
		}
	}
	return IndexChunk{}, false
}
