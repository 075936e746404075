package mmapreader

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/section"
)

// contentCacheKey is the single cache slot the whole decompressed content
// block occupies. LZ4 frames are not randomly seekable, so the block is
// decompressed as a unit on first access and evicted as a unit if the
// reader's cache bound is smaller than the block (spec §5's byte-bounded
// LRU cache degrades to "decompress every call" in that case, never to
// an error: a miss just means fall through to decompression again).
const contentCacheKey = 0

// content returns the decompressed content block, populating the cache on
// first use.
func (r *Reader) content() ([]byte, error) {
	if cached, ok := r.cache.Get(contentCacheKey); ok {
		return cached, nil
	}
	block, err := r.parsed.ContentBlock()
	if err != nil {
		return nil, err
	}
	r.cache.Put(contentCacheKey, block)
	return block, nil
}

// Node returns a read-only view of node id's fixed fields (offset
// computation only, no decoding).
func (r *Reader) Node(id uint32) (section.NodeRecord, error) {
	if id >= uint32(len(r.parsed.NodeRecords)) {
		return section.NodeRecord{}, fmt.Errorf("mmapreader: node %d: %w", id, errs.ErrNodeNotFound)
	}
	return r.parsed.NodeRecords[id], nil
}

// NodeContent decompresses (if needed, via the cache) and returns node
// id's content string.
func (r *Reader) NodeContent(id uint32) (string, error) {
	rec, err := r.Node(id)
	if err != nil {
		return "", err
	}
	block, err := r.content()
	if err != nil {
		return "", err
	}
	end := rec.ContentOffset + uint64(rec.ContentLength)
	if end > uint64(len(block)) {
		return "", fmt.Errorf("mmapreader: node %d content: %w", id, errs.ErrContentOffsetOutOfRange)
	}
	return string(block[rec.ContentOffset:end]), nil
}

// NodeMetadata decodes node id's metadata JSON object, or nil if absent.
func (r *Reader) NodeMetadata(id uint32) (map[string]string, error) {
	rec, err := r.Node(id)
	if err != nil {
		return nil, err
	}
	if !rec.HasMetadata() {
		return nil, nil
	}
	block, err := r.content()
	if err != nil {
		return nil, err
	}
	end := rec.MetadataOffset + uint64(rec.MetadataLength)
	if end > uint64(len(block)) {
		return nil, fmt.Errorf("mmapreader: node %d metadata: %w", id, errs.ErrContentOffsetOutOfRange)
	}
	var meta map[string]string
	if err := json.Unmarshal(block[rec.MetadataOffset:end], &meta); err != nil {
		return nil, fmt.Errorf("mmapreader: node %d metadata json: %w", id, err)
	}
	return meta, nil
}

// NodeVector returns node id's feature vector read directly from the
// mapped vector block, or nil if the node has none.
func (r *Reader) NodeVector(id uint32) ([]float32, error) {
	rec, err := r.Node(id)
	if err != nil {
		return nil, err
	}
	if !rec.HasVector() || !r.parsed.Header.HasVectors() {
		return nil, nil
	}
	vb := r.parsed.VectorBlock()
	dim := int(r.parsed.Header.Dimension)
	e := endian.GetLittleEndianEngine()

	end := rec.VectorOffset + uint64(dim)*4
	if end > uint64(len(vb)) {
		return nil, fmt.Errorf("mmapreader: node %d vector: %w", id, errs.ErrContentOffsetOutOfRange)
	}
	out := make([]float32, dim)
	for i := 0; i < dim; i++ {
		base := rec.VectorOffset + uint64(i)*4
		out[i] = math.Float32frombits(e.Uint32(vb[base : base+4]))
	}
	return out, nil
}

// MaterializeNode decodes every field of node id into a graph.Node,
// suitable for handing to the query engine's shared code paths. It does
// not increment any access counter: the mmap path has no mutable Graph to
// touch, so access counting for memory-mapped engines is the caller's
// responsibility at the query layer.
func (r *Reader) MaterializeNode(id uint32) (graph.Node, error) {
	rec, err := r.Node(id)
	if err != nil {
		return graph.Node{}, err
	}
	content, err := r.NodeContent(id)
	if err != nil {
		return graph.Node{}, err
	}
	meta, err := r.NodeMetadata(id)
	if err != nil {
		return graph.Node{}, err
	}
	vec, err := r.NodeVector(id)
	if err != nil {
		return graph.Node{}, err
	}
	return graph.Node{
		ID:         id,
		Kind:       format.EventKind(rec.EventKind),
		Session:    rec.Session,
		Confidence: rec.Confidence,
		Timestamp:  rec.Timestamp,
		Content:    content,
		Metadata:   meta,
		Vector:     vec,
	}, nil
}

// Edge returns edge index i's fixed fields.
func (r *Reader) Edge(i int) (section.EdgeRecord, error) {
	if i < 0 || i >= len(r.parsed.EdgeRecords) {
		return section.EdgeRecord{}, fmt.Errorf("mmapreader: edge %d: %w", i, errs.ErrNodeNotFound)
	}
	return r.parsed.EdgeRecords[i], nil
}

// Edges returns every edge record in the file.
func (r *Reader) Edges() []section.EdgeRecord {
	return r.parsed.EdgeRecords
}
