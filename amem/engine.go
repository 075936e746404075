package amem

import (
	"fmt"
	"os"
	"sync"

	"github.com/agentmem/amem/codec"
	"github.com/agentmem/amem/embed"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
	"github.com/agentmem/amem/internal/options"
)

// Engine is a single-writer, multiple-reader handle over one amem file
// (spec §6.3, §5 "Model"). The engine holds the full graph in memory
// (spec §9 "global state: per-file state only") and persists it with
// codec.WriteGraphFile on Flush/Close. Engine serializes all operations
// with an internal mutex, so a single instance is safe to move between
// goroutines and to call from several goroutines at once, at the cost of
// no internal parallelism.
type Engine struct {
	mu     sync.Mutex
	path   string
	cfg    Config
	g      *graph.Graph
	dirty  bool
	closed bool
}

// Create makes a new, empty file at path with the given configuration and
// opens an Engine over it (spec §6.3 "create(path, dim=128) → engine").
func Create(path string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig(0)
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, fmt.Errorf("amem: create: %w", err)
	}
	if cfg.Dimension > 0 && cfg.Embedder.Dimension != int(cfg.Dimension) {
		cfg.Embedder = embed.New(int(cfg.Dimension))
	}

	g := graph.New(graph.Config{Dimension: cfg.Dimension})
	if err := codec.WriteGraphFile(path, g, cfg.codecOptions()); err != nil {
		return nil, fmt.Errorf("amem: create %s: %w", path, err)
	}

	return &Engine{path: path, cfg: cfg, g: g}, nil
}

// Open loads an existing file at path fully into memory (spec §6.3
// "open(path) → engine"). The engine's index-build configuration defaults
// to rebuilding every index on flush; override with opts.
func Open(path string, opts ...Option) (*Engine, error) {
	data, err := codec.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("amem: open %s: %w", path, err)
	}
	g, err := codec.DecodeGraph(data)
	if err != nil {
		return nil, fmt.Errorf("amem: open %s: %w", path, err)
	}

	cfg := defaultConfig(g.Config().Dimension)
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, fmt.Errorf("amem: open: %w", err)
	}
	cfg.Dimension = g.Config().Dimension

	return &Engine{path: path, cfg: cfg, g: g}, nil
}

// Flush re-encodes the in-memory graph and durably commits it to the
// engine's file via the temp-file/fsync/rename discipline, if anything
// has changed since the last flush. It is a no-op otherwise.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked()
}

func (e *Engine) flushLocked() error {
	if e.closed {
		return errs.ErrClosed
	}
	if !e.dirty {
		return nil
	}
	if err := codec.WriteGraphFile(e.path, e.g, e.cfg.codecOptions()); err != nil {
		return fmt.Errorf("amem: flush: %w", err)
	}
	e.dirty = false
	return nil
}

// Close flushes any pending mutations and releases the engine. Further
// calls on a closed Engine return errs.ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	err := e.flushLocked()
	e.closed = true
	return err
}

// Add appends a new cognitive event node, embedding its content into a
// feature vector via the engine's configured Embedder when the file
// carries vectors (spec §6.3 "add(engine, kind, content, session?,
// confidence=1.0, metadata?) → node_id").
func (e *Engine) Add(kind format.EventKind, content string, session uint32, confidence float32, metadata map[string]string) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errs.ErrClosed
	}

	var vector []float32
	if e.cfg.Dimension > 0 {
		vector = e.cfg.Embedder.Embed(content)
	}

	id, err := e.g.AddNode(kind, session, confidence, nowUnix(), content, metadata, vector)
	if err != nil {
		return 0, err
	}
	e.dirty = true
	return id, nil
}

// Link creates a typed, weighted edge between two existing nodes (spec
// §6.3 "link(engine, src, dst, kind, weight=1.0) → edge_id").
func (e *Engine) Link(src, dst uint32, kind format.EdgeKind, weight float32) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errs.ErrClosed
	}
	id, err := e.g.AddEdge(src, dst, kind, weight)
	if err != nil {
		return 0, err
	}
	e.dirty = true
	return id, nil
}

// Get returns a copy of node id's current state, incrementing its
// process-lifetime access counter (spec §6.3 "get(engine, node_id) →
// node_view"; §4 supplement "access count ... incremented by Engine.Get").
func (e *Engine) Get(id uint32) (graph.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return graph.Node{}, errs.ErrClosed
	}
	n, ok := e.g.Node(id)
	if !ok {
		return graph.Node{}, fmt.Errorf("amem: get %d: %w", id, errs.ErrNodeNotFound)
	}
	e.g.Touch(id)
	return *n, nil
}

// Neighbors returns the edges incident to id in the requested direction
// (spec §6.3 "neighbors(engine, id, direction) → edges").
func (e *Engine) Neighbors(id uint32, direction format.Direction) ([]graph.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errs.ErrClosed
	}
	if _, ok := e.g.Node(id); !ok {
		return nil, fmt.Errorf("amem: neighbors %d: %w", id, errs.ErrNodeNotFound)
	}
	switch direction {
	case format.DirectionForward:
		return e.g.OutgoingEdges(id), nil
	case format.DirectionBackward:
		return e.g.IncomingEdges(id), nil
	default:
		out := append(e.g.OutgoingEdges(id), e.g.IncomingEdges(id)...)
		return out, nil
	}
}

// Stats is the aggregate file/graph summary returned by Engine.Stats
// (spec §6.3 "stats(engine) → {node_count, edge_count, session_count,
// file_size, per_kind_counts}").
type Stats struct {
	NodeCount     int
	EdgeCount     int
	SessionCount  int
	FileSizeBytes int64
	PerKindCounts map[format.EventKind]int
}

// Stats reports aggregate counts over the current in-memory graph plus
// the on-disk file size as of the last flush.
func (e *Engine) Stats() (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Stats{}, errs.ErrClosed
	}

	perKind := make(map[format.EventKind]int)
	for _, n := range e.g.Nodes() {
		perKind[n.Kind]++
	}

	var size int64
	if info, err := os.Stat(e.path); err == nil {
		size = info.Size()
	}

	return Stats{
		NodeCount:     e.g.NodeCount(),
		EdgeCount:     e.g.EdgeCount(),
		SessionCount:  len(e.g.Sessions()),
		FileSizeBytes: size,
		PerKindCounts: perKind,
	}, nil
}
