package index

import (
	"fmt"
	"sort"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/internal/hash"
	"github.com/agentmem/amem/internal/tokenize"
)

// Posting is one `(node_id, term_frequency)` entry of a term's posting list
// (spec §4.4 tag 0x05).
type Posting struct {
	NodeID uint32
	TF     uint32
}

// TermIndex is the BM25 term index: postings keyed by the xxhash of the
// normalized token (so the on-disk representation never stores raw term
// strings; any reader can recompute a query token's key with the same
// hash, since tokenization is byte-reproducible per spec §4.4).
type TermIndex struct {
	Postings map[uint64][]Posting
	DocFreq  map[uint64]uint32
	NumDocs  int
}

// TermKey hashes a normalized token into its term-index key.
func TermKey(term string) uint64 {
	return hash.ID(term)
}

// BuildTermIndex tokenizes every node's content and builds the postings
// and document-frequency maps.
func BuildTermIndex(g *graph.Graph) TermIndex {
	ti := TermIndex{
		Postings: make(map[uint64][]Posting),
		DocFreq:  make(map[uint64]uint32),
	}

	for _, n := range g.Nodes() {
		tokens := tokenize.Tokens(n.Content)
		ti.NumDocs++
		if len(tokens) == 0 {
			continue
		}
		tf := make(map[uint64]uint32)
		for _, tok := range tokens {
			tf[TermKey(tok)]++
		}
		for key, count := range tf {
			ti.Postings[key] = append(ti.Postings[key], Posting{NodeID: n.ID, TF: count})
			ti.DocFreq[key]++
		}
	}

	for key := range ti.Postings {
		sort.Slice(ti.Postings[key], func(i, j int) bool {
			return ti.Postings[key][i].NodeID < ti.Postings[key][j].NodeID
		})
	}

	return ti
}

// Encode serializes the term index as:
// num_docs:u32, term_count:u32, then per term: key:u64, df:u32, posting_count:u32, postings(node_id:u32, tf:u32)*.
// Terms are emitted sorted by key for deterministic byte output.
func (ti TermIndex) Encode() []byte {
	e := endian.GetLittleEndianEngine()

	keys := make([]uint64, 0, len(ti.Postings))
	for k := range ti.Postings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	size := 8
	for _, k := range keys {
		size += 16 + len(ti.Postings[k])*8
	}

	out := make([]byte, size)
	e.PutUint32(out[0:4], uint32(ti.NumDocs))
	e.PutUint32(out[4:8], uint32(len(keys)))
	off := 8
	for _, k := range keys {
		postings := ti.Postings[k]
		e.PutUint64(out[off:off+8], k)
		e.PutUint32(out[off+8:off+12], ti.DocFreq[k])
		e.PutUint32(out[off+12:off+16], uint32(len(postings)))
		off += 16
		for _, p := range postings {
			e.PutUint32(out[off:off+4], p.NodeID)
			e.PutUint32(out[off+4:off+8], p.TF)
			off += 8
		}
	}
	return out
}

// DecodeTermIndex parses the payload produced by Encode.
func DecodeTermIndex(data []byte) (TermIndex, error) {
	if len(data) < 8 {
		return TermIndex{}, fmt.Errorf("decode term index: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	ti := TermIndex{Postings: make(map[uint64][]Posting), DocFreq: make(map[uint64]uint32)}
	ti.NumDocs = int(e.Uint32(data[0:4]))
	termCount := int(e.Uint32(data[4:8]))

	off := 8
	for i := 0; i < termCount; i++ {
		if off+16 > len(data) {
			return TermIndex{}, fmt.Errorf("decode term index: truncated term header at %d: %w", off, errs.ErrInvalidIndexChunk)
		}
		key := e.Uint64(data[off : off+8])
		df := e.Uint32(data[off+8 : off+12])
		count := int(e.Uint32(data[off+12 : off+16]))
		off += 16

		need := off + count*8
		if need > len(data) {
			return TermIndex{}, fmt.Errorf("decode term index: truncated postings at %d: %w", off, errs.ErrInvalidIndexChunk)
		}
		postings := make([]Posting, count)
		for p := 0; p < count; p++ {
			postings[p] = Posting{
				NodeID: e.Uint32(data[off : off+4]),
				TF:     e.Uint32(data[off+4 : off+8]),
			}
			off += 8
		}
		ti.DocFreq[key] = df
		ti.Postings[key] = postings
	}

	return ti, nil
}
