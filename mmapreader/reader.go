// Package mmapreader implements the read-only, memory-mapped view over an
// amem file (spec §4.3): the header and fixed-layout node/edge records are
// accessed by direct offset computation, the content block is decompressed
// lazily and cached, and feature vectors are read straight out of the
// mapped region as byte-reinterpreted float slices.
//
// Grounded on xDarkicex/libravdb's internal/memory/mmap.go: syscall.Mmap
// over an *os.File opened read-only, PROT_READ, MAP_SHARED, with
// syscall.Munmap on Close. This package wraps that primitive with the
// amem-specific section layout from package section/codec instead of
// libravdb's generic byte region.
package mmapreader

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/agentmem/amem/codec"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/internal/cache"
)

// Reader is a read-only, memory-mapped view over one amem file. Safe for
// concurrent use by multiple goroutines (spec §4.3 "Concurrency"); Close
// invalidates every view obtained from it (spec §4.3 "Lifetime").
type Reader struct {
	mu     sync.RWMutex
	file   *os.File
	data   []byte
	parsed *codec.ParsedFile
	cache  *cache.ContentCache
	idx    indexCache
	closed bool
}

// Options controls Reader construction.
type Options struct {
	// ContentCacheBytes bounds the decompressed-content LRU cache (spec
	// §5 default 64 MiB). Zero uses cache.DefaultMaxBytes.
	ContentCacheBytes int
}

// Open memory-maps path read-only and validates its header and fixed
// sections via codec.Parse.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmapreader: open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapreader: stat: %w", err)
	}
	size := stat.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("mmapreader: empty file: %w", errs.ErrTruncated)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapreader: mmap: %w", err)
	}

	parsed, err := codec.Parse(data)
	if err != nil {
		_ = syscall.Munmap(data)
		f.Close()
		return nil, err
	}

	return &Reader{
		file:   f,
		data:   data,
		parsed: parsed,
		cache:  cache.New(opts.ContentCacheBytes),
	}, nil
}

// Close unmaps the file and releases the file handle. Further use of any
// view obtained from this Reader is undefined.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if err := syscall.Munmap(r.data); err != nil {
		firstErr = fmt.Errorf("mmapreader: munmap: %w", err)
	}
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("mmapreader: close: %w", err)
	}
	return firstErr
}

// Parsed returns the underlying codec.ParsedFile for components (index
// package, query package) that need direct section access.
func (r *Reader) Parsed() *codec.ParsedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsed
}

// NodeCount returns the number of nodes in the mapped file.
func (r *Reader) NodeCount() int {
	return int(r.parsed.Header.NodeCount)
}

// EdgeCount returns the number of edges in the mapped file.
func (r *Reader) EdgeCount() int {
	return int(r.parsed.Header.EdgeCount)
}

// Dimension returns the file's declared feature vector width.
func (r *Reader) Dimension() int {
	return int(r.parsed.Header.Dimension)
}
