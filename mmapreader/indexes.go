package mmapreader

import (
	"fmt"
	"sync"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/index"
	"github.com/agentmem/amem/section"
)

// indexCache holds the decoded trailing index structures, each decoded at
// most once and held for the reader's lifetime (spec §5 "loaded on first
// use and held for the reader's lifetime").
type indexCache struct {
	once   sync.Once
	chunks []section.IndexChunk
	err    error

	typeBitmap   onceValue[index.TypeBitmap]
	sessionRange onceValue[[]index.SessionEntry]
	timeIndex    onceValue[[]index.TimeEntry]
	clusterMap   onceValue[index.ClusterMap]
	termIndex    onceValue[index.TermIndex]
	docLengths   onceValue[[]uint32]
}

type onceValue[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (r *Reader) chunks() ([]section.IndexChunk, error) {
	r.idx.once.Do(func() {
		block := r.parsed.IndexBlock()
		if block == nil {
			return
		}
		r.idx.chunks, r.idx.err = section.DecodeIndexChunks(block)
	})
	return r.idx.chunks, r.idx.err
}

func (r *Reader) chunkFor(tag format.IndexTag) ([]byte, bool, error) {
	chunks, err := r.chunks()
	if err != nil {
		return nil, false, err
	}
	c, ok := section.Find(chunks, tag)
	if !ok {
		return nil, false, nil
	}
	return c.Payload, true, nil
}

// TypeBitmap returns the decoded per-event-kind bitmap, or an error
// wrapping errs.ErrIndexMissing if the file carries no such chunk.
func (r *Reader) TypeBitmap() (index.TypeBitmap, error) {
	r.idx.typeBitmap.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagTypeBitmap)
		if err != nil {
			r.idx.typeBitmap.err = err
			return
		}
		if !ok {
			r.idx.typeBitmap.err = fmt.Errorf("mmapreader: type bitmap: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.typeBitmap.val, r.idx.typeBitmap.err = index.DecodeTypeBitmap(payload)
	})
	return r.idx.typeBitmap.val, r.idx.typeBitmap.err
}

// SessionRanges returns the decoded session range table.
func (r *Reader) SessionRanges() ([]index.SessionEntry, error) {
	r.idx.sessionRange.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagSessionRange)
		if err != nil {
			r.idx.sessionRange.err = err
			return
		}
		if !ok {
			r.idx.sessionRange.err = fmt.Errorf("mmapreader: session ranges: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.sessionRange.val, r.idx.sessionRange.err = index.DecodeSessionRanges(payload)
	})
	return r.idx.sessionRange.val, r.idx.sessionRange.err
}

// TimeIndex returns the decoded (timestamp, node id) table sorted
// ascending.
func (r *Reader) TimeIndex() ([]index.TimeEntry, error) {
	r.idx.timeIndex.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagTimeIndex)
		if err != nil {
			r.idx.timeIndex.err = err
			return
		}
		if !ok {
			r.idx.timeIndex.err = fmt.Errorf("mmapreader: time index: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.timeIndex.val, r.idx.timeIndex.err = index.DecodeTimeIndex(payload)
	})
	return r.idx.timeIndex.val, r.idx.timeIndex.err
}

// ClusterMap returns the decoded k-means cluster map used to prune
// brute-force vector search.
func (r *Reader) ClusterMap() (index.ClusterMap, error) {
	r.idx.clusterMap.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagClusterMap)
		if err != nil {
			r.idx.clusterMap.err = err
			return
		}
		if !ok {
			r.idx.clusterMap.err = fmt.Errorf("mmapreader: cluster map: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.clusterMap.val, r.idx.clusterMap.err = index.DecodeClusterMap(payload)
	})
	return r.idx.clusterMap.val, r.idx.clusterMap.err
}

// TermIndex returns the decoded BM25 inverted index.
func (r *Reader) TermIndex() (index.TermIndex, error) {
	r.idx.termIndex.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagTermIndex)
		if err != nil {
			r.idx.termIndex.err = err
			return
		}
		if !ok {
			r.idx.termIndex.err = fmt.Errorf("mmapreader: term index: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.termIndex.val, r.idx.termIndex.err = index.DecodeTermIndex(payload)
	})
	return r.idx.termIndex.val, r.idx.termIndex.err
}

// DocLengths returns the decoded per-node token-count table used by BM25.
func (r *Reader) DocLengths() ([]uint32, error) {
	r.idx.docLengths.once.Do(func() {
		payload, ok, err := r.chunkFor(format.IndexTagDocLengths)
		if err != nil {
			r.idx.docLengths.err = err
			return
		}
		if !ok {
			r.idx.docLengths.err = fmt.Errorf("mmapreader: doc lengths: %w", errs.ErrIndexMissing)
			return
		}
		r.idx.docLengths.val, r.idx.docLengths.err = index.DecodeDocLengths(payload)
	})
	return r.idx.docLengths.val, r.idx.docLengths.err
}
