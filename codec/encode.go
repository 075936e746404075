package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/agentmem/amem/compress"
	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/index"
	"github.com/agentmem/amem/internal/pool"
	"github.com/agentmem/amem/section"
)

// Encode serializes g into a byte-exact amem file per spec §4.1/§6.1:
// every section offset is computed first, so the header is written once,
// followed by node records, edge records, content block, vector block and
// index block.
func Encode(g *graph.Graph, opts Options) ([]byte, error) {
	nodes := g.Nodes()
	edges := sortedEdges(g.Edges())

	contentBlock, nodeRecords, err := buildContentAndNodeRecords(nodes, g.Config().Dimension)
	if err != nil {
		return nil, err
	}

	compressed, uncompressedLen := false, len(contentBlock)
	var encodedContent []byte
	if opts.ForceCompress || len(contentBlock) > opts.threshold() {
		out, err := compress.NewLZ4Codec().Compress(contentBlock)
		if err != nil {
			return nil, fmt.Errorf("encode: compress content: %w", err)
		}
		encodedContent = out
		compressed = true
	} else {
		encodedContent = contentBlock
	}

	vectorBlock := buildVectorBlock(nodes, g.Config().Dimension)
	hasVectors := g.Config().Dimension > 0 && len(vectorBlock) > 0

	indexChunks := buildIndexChunks(g, opts)
	indexBlock := section.EncodeIndexChunks(indexChunks)

	headerLen := section.HeaderSize
	nodeRecordsLen := len(nodes) * section.NodeRecordSize
	edgeRecordsLen := len(edges) * section.EdgeRecordSize
	contentOffset := uint64(headerLen + nodeRecordsLen + edgeRecordsLen)
	vectorOffset := contentOffset + uint64(len(encodedContent))
	indexOffset := vectorOffset + uint64(len(vectorBlock))

	var flags uint16
	if hasVectors {
		flags |= format.FlagHasVectors
	}
	if len(indexChunks) > 0 {
		flags |= format.FlagHasIndexes
	}
	if compressed {
		flags |= format.FlagContentCompressed
	}

	h := section.Header{
		Version:             format.CurrentVersion,
		Flags:               flags,
		NodeCount:           uint32(len(nodes)),
		EdgeCount:           uint32(len(edges)),
		Dimension:           g.Config().Dimension,
		SessionCount:        uint16(len(g.Sessions())),
		ContentOffset:       contentOffset,
		ContentLength:       uint64(len(encodedContent)),
		VectorOffset:        vectorOffset,
		IndexOffset:         indexOffset,
		ContentUncompressed: uint32(uncompressedLen),
	}

	// The full file image is assembled in a pooled scratch buffer to absorb
	// the repeated-growth cost of a single-writer engine that re-encodes
	// the whole graph on every flush; the buffer is returned to the pool
	// before Encode returns, so the caller always receives an
	// independently owned copy.
	buf := pool.GetEncodeBuffer()
	defer pool.PutEncodeBuffer(buf)
	buf.Grow(int(indexOffset) + len(indexBlock))

	buf.MustWrite(h.Bytes())
	for _, r := range nodeRecords {
		buf.MustWrite(r.Bytes())
	}
	for _, edge := range edges {
		r := section.EdgeRecord{Source: edge.Source, Target: edge.Target, EdgeKind: uint8(edge.Kind), Weight: edge.Weight}
		buf.MustWrite(r.Bytes())
	}
	buf.MustWrite(encodedContent)
	buf.MustWrite(vectorBlock)
	buf.MustWrite(indexBlock)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// sortedEdges returns a copy of edges sorted by (source, target, kind)
// ascending, per spec §4.1 "Edge sort". The in-memory mutator keeps
// append order; only the codec imposes this ordering on flush.
func sortedEdges(edges []graph.Edge) []graph.Edge {
	out := make([]graph.Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// buildContentAndNodeRecords lays out the content block as every node's
// content bytes in id order, followed by every node's JSON metadata
// object in id order (spec §6.1 "Content block"), and returns the
// corresponding node records with offsets/lengths into that block.
func buildContentAndNodeRecords(nodes []graph.Node, dim uint16) ([]byte, []section.NodeRecord, error) {
	var block []byte
	records := make([]section.NodeRecord, len(nodes))

	contentOffsets := make([]uint64, len(nodes))
	contentLengths := make([]uint32, len(nodes))
	for _, n := range nodes {
		contentOffsets[n.ID] = uint64(len(block))
		contentLengths[n.ID] = uint32(len(n.Content))
		block = append(block, n.Content...)
	}

	metaOffsets := make([]uint64, len(nodes))
	metaLengths := make([]uint32, len(nodes))
	for i := range metaOffsets {
		metaOffsets[i] = section.NoMetadata
	}
	for _, n := range nodes {
		if len(n.Metadata) == 0 {
			continue
		}
		buf, err := json.Marshal(n.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encode: marshal metadata for node %d: %w", n.ID, err)
		}
		metaOffsets[n.ID] = uint64(len(block))
		metaLengths[n.ID] = uint32(len(buf))
		block = append(block, buf...)
	}

	for _, n := range nodes {
		vecOffset := section.NoVector
		if n.HasVector() && dim > 0 {
			vecOffset = uint64(n.ID) * uint64(dim) * 4
		}
		records[n.ID] = section.NodeRecord{
			EventKind:      uint8(n.Kind),
			Session:        n.Session,
			Confidence:     n.Confidence,
			Timestamp:      n.Timestamp,
			ContentOffset:  contentOffsets[n.ID],
			ContentLength:  contentLengths[n.ID],
			VectorOffset:   vecOffset,
			MetadataOffset: metaOffsets[n.ID],
			MetadataLength: metaLengths[n.ID],
		}
	}

	return block, records, nil
}

// buildVectorBlock returns the dense, row-major f32 vector block (spec
// §6.1 "Vector block"). Nodes without a vector occupy an all-zero row.
// Returns nil when the file carries no vectors at all.
func buildVectorBlock(nodes []graph.Node, dim uint16) []byte {
	if dim == 0 {
		return nil
	}
	anyVector := false
	for _, n := range nodes {
		if n.HasVector() {
			anyVector = true
			break
		}
	}
	if !anyVector {
		return nil
	}

	e := endian.GetLittleEndianEngine()
	out := make([]byte, len(nodes)*int(dim)*4)
	for _, n := range nodes {
		base := int(n.ID) * int(dim) * 4
		for d := 0; d < int(dim) && d < len(n.Vector); d++ {
			e.PutUint32(out[base+d*4:base+d*4+4], math.Float32bits(n.Vector[d]))
		}
	}
	return out
}

func buildIndexChunks(g *graph.Graph, opts Options) []section.IndexChunk {
	var chunks []section.IndexChunk

	if opts.Indexes.TypeBitmap {
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagTypeBitmap, Payload: index.BuildTypeBitmap(g).Encode()})
	}
	if opts.Indexes.SessionRange {
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagSessionRange, Payload: index.EncodeSessionRanges(index.BuildSessionRanges(g))})
	}
	if opts.Indexes.TimeIndex {
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagTimeIndex, Payload: index.EncodeTimeIndex(index.BuildTimeIndex(g))})
	}
	if opts.Indexes.ClusterMap && g.Config().Dimension > 0 {
		k := opts.ClusterCount
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagClusterMap, Payload: index.BuildClusterMap(g, int(g.Config().Dimension), k).Encode()})
	}
	if opts.Indexes.TermIndex {
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagTermIndex, Payload: index.BuildTermIndex(g).Encode()})
	}
	if opts.Indexes.DocLengths {
		chunks = append(chunks, section.IndexChunk{Tag: format.IndexTagDocLengths, Payload: index.EncodeDocLengths(index.BuildDocLengths(g))})
	}

	return chunks
}
