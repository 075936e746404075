package amem

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/index"
	"github.com/agentmem/amem/internal/tokenize"
	"github.com/agentmem/amem/mmapreader"
)

// ReadOnlyEngine is a memory-mapped, read-only view over an amem file: it
// never materializes the whole graph, so many readers can open the same
// file concurrently with the writer (spec §5 "Model": single writer,
// multiple readers per file). Use Open/Create for the mutating, full
// in-memory Engine; use this type when a process only ever reads.
type ReadOnlyEngine struct {
	mu sync.Mutex
	r  *mmapreader.Reader
}

// ReadOnlyOptions controls ReadOnlyEngine construction.
type ReadOnlyOptions struct {
	// ContentCacheBytes bounds the decompressed-content LRU cache. Zero
	// uses the reader's default.
	ContentCacheBytes int
}

// OpenReadOnly memory-maps path and validates its header and fixed
// sections without decoding node content or vectors until asked for.
func OpenReadOnly(path string, opts ReadOnlyOptions) (*ReadOnlyEngine, error) {
	r, err := mmapreader.Open(path, mmapreader.Options{ContentCacheBytes: opts.ContentCacheBytes})
	if err != nil {
		return nil, fmt.Errorf("amem: open read-only %s: %w", path, err)
	}
	return &ReadOnlyEngine{r: r}, nil
}

// Close unmaps the underlying file.
func (e *ReadOnlyEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.Close()
}

// NodeCount returns the number of nodes in the mapped file.
func (e *ReadOnlyEngine) NodeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.NodeCount()
}

// EdgeCount returns the number of edges in the mapped file.
func (e *ReadOnlyEngine) EdgeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.EdgeCount()
}

// Dimension returns the file's declared feature vector width.
func (e *ReadOnlyEngine) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.Dimension()
}

// Get decodes node id's content, metadata, and vector directly out of the
// mapped file.
func (e *ReadOnlyEngine) Get(id uint32) (graph.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.MaterializeNode(id)
}

// bm25K1 and bm25B mirror query.TextSearch's fixed BM25 parameters (spec
// §4.6); duplicated here since that package operates on a *graph.Graph
// and this path scores straight out of the mapped term index instead of
// materializing one.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// TextSearch ranks nodes by BM25 relevance using the file's precomputed
// term index and document-length table, never touching the content block.
// Returns errs.ErrIndexMissing if the file was written without a term
// index (spec §4.4 tag 0x05).
func (e *ReadOnlyEngine) TextSearch(text string, k int) ([]uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	terms := tokenize.Tokens(text)
	if len(terms) == 0 {
		return nil, nil
	}

	ti, err := e.r.TermIndex()
	if err != nil {
		return nil, err
	}
	docLengths, err := e.r.DocLengths()
	if err != nil {
		return nil, err
	}
	avgLen := averageLength(docLengths)
	if avgLen == 0 {
		avgLen = 1
	}

	scores := make(map[uint32]float64)
	for _, term := range terms {
		key := index.TermKey(term)
		postings, ok := ti.Postings[key]
		if !ok {
			continue
		}
		df := float64(ti.DocFreq[key])
		idf := math.Log(1 + (float64(ti.NumDocs)-df+0.5)/(df+0.5))
		for _, p := range postings {
			dl := float64(docLengths[p.NodeID])
			tf := float64(p.TF)
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/avgLen)
			scores[p.NodeID] += idf * (tf * (bm25K1 + 1) / denom)
		}
	}

	type scored struct {
		id    uint32
		score float64
	}
	out := make([]scored, 0, len(scores))
	for id, s := range scores {
		out = append(out, scored{id, s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}

	ids := make([]uint32, len(out))
	for i, s := range out {
		ids[i] = s.id
	}
	return ids, nil
}

func averageLength(lengths []uint32) float64 {
	if len(lengths) == 0 {
		return 0
	}
	var sum uint64
	for _, l := range lengths {
		sum += uint64(l)
	}
	return float64(sum) / float64(len(lengths))
}
