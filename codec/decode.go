package codec

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/agentmem/amem/compress"
	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/section"
)

// ParsedFile is the fully validated, lazily-decoded view of an amem file
// produced by Parse. It owns no file handle; Data is the complete file
// contents (or the memory-mapped region, for the mmap reader).
type ParsedFile struct {
	Header      section.Header
	NodeRecords []section.NodeRecord
	EdgeRecords []section.EdgeRecord
	Data        []byte // full file bytes, for locating the content/vector/index blocks
}

// Parse validates the header and fixed-layout sections of data and
// returns a ParsedFile. It walks the index chunk framing to detect a
// truncated index block, but does not decompress the content block or
// decode index chunk payloads; callers do that lazily (spec §4.3).
func Parse(data []byte) (*ParsedFile, error) {
	h, err := section.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	needFixed := section.HeaderSize + int(h.NodeCount)*section.NodeRecordSize + int(h.EdgeCount)*section.EdgeRecordSize
	if len(data) < needFixed {
		return nil, fmt.Errorf("parse: need %d bytes for fixed sections, got %d: %w", needFixed, len(data), errs.ErrTruncated)
	}
	if uint64(needFixed) != h.ContentOffset {
		return nil, fmt.Errorf("parse: content offset %d != computed %d: %w", h.ContentOffset, needFixed, errs.ErrFormatInvalid)
	}
	if h.ContentOffset+h.ContentLength > uint64(len(data)) {
		return nil, fmt.Errorf("parse: content block overruns file: %w", errs.ErrTruncated)
	}
	if h.HasVectors() {
		wantVectorLen := uint64(h.NodeCount) * uint64(h.Dimension) * 4
		if h.IndexOffset < h.VectorOffset || h.IndexOffset-h.VectorOffset != wantVectorLen {
			return nil, fmt.Errorf("parse: vector block size mismatch: %w", errs.ErrFormatInvalid)
		}
	}
	if h.IndexOffset > uint64(len(data)) {
		return nil, fmt.Errorf("parse: index offset %d beyond file length %d: %w", h.IndexOffset, len(data), errs.ErrTruncated)
	}
	if h.HasIndexes() {
		if _, err := section.DecodeIndexChunks(data[h.IndexOffset:]); err != nil {
			return nil, fmt.Errorf("parse: index block: %w: %w", errs.ErrTruncated, err)
		}
	}

	pf := &ParsedFile{Header: h, Data: data}

	off := section.HeaderSize
	pf.NodeRecords = make([]section.NodeRecord, h.NodeCount)
	for i := range pf.NodeRecords {
		r, err := section.ParseNodeRecord(data[off : off+section.NodeRecordSize])
		if err != nil {
			return nil, err
		}
		pf.NodeRecords[i] = r
		off += section.NodeRecordSize
	}

	pf.EdgeRecords = make([]section.EdgeRecord, h.EdgeCount)
	for i := range pf.EdgeRecords {
		r, err := section.ParseEdgeRecord(data[off : off+section.EdgeRecordSize])
		if err != nil {
			return nil, err
		}
		if r.Source >= h.NodeCount || r.Target >= h.NodeCount {
			return nil, fmt.Errorf("parse: edge %d endpoint out of range: %w", i, errs.ErrEdgeEndpointInvalid)
		}
		pf.EdgeRecords[i] = r
		off += section.EdgeRecordSize
	}

	return pf, nil
}

// ContentBlock returns the decompressed content block bytes.
func (pf *ParsedFile) ContentBlock() ([]byte, error) {
	raw := pf.Data[pf.Header.ContentOffset : pf.Header.ContentOffset+pf.Header.ContentLength]
	if !pf.Header.ContentCompressed() {
		return raw, nil
	}
	out, err := compress.NewLZ4Codec().Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("content block: %w", err)
	}
	return out, nil
}

// VectorBlock returns the raw vector block bytes, or nil when the file
// has no vectors.
func (pf *ParsedFile) VectorBlock() []byte {
	if !pf.Header.HasVectors() {
		return nil
	}
	return pf.Data[pf.Header.VectorOffset:pf.Header.IndexOffset]
}

// IndexBlock returns the raw index block bytes, or nil when absent.
func (pf *ParsedFile) IndexBlock() []byte {
	if !pf.Header.HasIndexes() {
		return nil
	}
	return pf.Data[pf.Header.IndexOffset:]
}

// DecodeGraph fully materializes a ParsedFile into an in-memory
// graph.Graph, decompressing content and reading every vector eagerly.
// Used by callers that want the mutable representation back (e.g. to
// continue appending), and by the round-trip property tests.
func DecodeGraph(data []byte) (*graph.Graph, error) {
	pf, err := Parse(data)
	if err != nil {
		return nil, err
	}

	content, err := pf.ContentBlock()
	if err != nil {
		return nil, err
	}
	vectors := pf.VectorBlock()

	g := graph.New(graph.Config{Dimension: pf.Header.Dimension})

	for i, r := range pf.NodeRecords {
		nodeContent, err := sliceContent(content, r.ContentOffset, r.ContentLength)
		if err != nil {
			return nil, fmt.Errorf("decode: node %d content: %w", i, err)
		}

		var meta map[string]string
		if r.HasMetadata() {
			raw, err := sliceContent(content, r.MetadataOffset, r.MetadataLength)
			if err != nil {
				return nil, fmt.Errorf("decode: node %d metadata: %w", i, err)
			}
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("decode: node %d metadata json: %w", i, err)
			}
		}

		var vec []float32
		if r.HasVector() && pf.Header.Dimension > 0 {
			vec, err = sliceVector(vectors, r.VectorOffset, int(pf.Header.Dimension))
			if err != nil {
				return nil, fmt.Errorf("decode: node %d vector: %w", i, err)
			}
		}

		id, err := g.AddNode(format.EventKind(r.EventKind), r.Session, r.Confidence, r.Timestamp, string(nodeContent), meta, vec)
		if err != nil {
			return nil, fmt.Errorf("decode: node %d: %w", i, err)
		}
		if id != uint32(i) {
			return nil, fmt.Errorf("decode: node %d got id %d: %w", i, id, errs.ErrFormatInvalid)
		}
	}

	for i, r := range pf.EdgeRecords {
		if _, err := g.AddEdge(r.Source, r.Target, format.EdgeKind(r.EdgeKind), r.Weight); err != nil {
			return nil, fmt.Errorf("decode: edge %d: %w", i, err)
		}
	}

	return g, nil
}

func sliceContent(block []byte, offset uint64, length uint32) ([]byte, error) {
	if offset == section.NoMetadata {
		return nil, nil
	}
	end := offset + uint64(length)
	if end > uint64(len(block)) {
		return nil, errs.ErrContentOffsetOutOfRange
	}
	return block[offset:end], nil
}

func sliceVector(block []byte, offset uint64, dim int) ([]float32, error) {
	end := offset + uint64(dim)*4
	if end > uint64(len(block)) {
		return nil, errs.ErrContentOffsetOutOfRange
	}
	e := endian.GetLittleEndianEngine()
	out := make([]float32, dim)
	for i := 0; i < dim; i++ {
		base := offset + uint64(i)*4
		out[i] = math.Float32frombits(e.Uint32(block[base : base+4]))
	}
	return out, nil
}
