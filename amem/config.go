// Package amem is the top-level facade over the cognitive graph engine
// (spec §6.3): it wires together graph, codec, mmapreader, index, query,
// and maintenance behind the single Engine type a host process embeds.
// Grounded on mebo's top-level mebo.go, which plays the same role over
// that project's blob/section/codec packages.
package amem

import (
	"github.com/agentmem/amem/codec"
	"github.com/agentmem/amem/embed"
	"github.com/agentmem/amem/internal/options"
	"github.com/agentmem/amem/maintenance"
)

// Config controls file creation and the embedding/indexing behavior an
// Engine applies over its lifetime (spec §9 "Builder / config pattern").
// Set once at Create or Open and immutable afterward; Open takes Dimension
// from the file header and every other field from the defaults and opts.
type Config struct {
	// Dimension is the feature vector width new files are created with.
	// Create defaults it to embed.DefaultDimension (128); an explicit zero
	// creates a file without vectors.
	Dimension uint16
	// Indexes controls which auxiliary index structures are rebuilt on
	// every flush. Zero value builds none; use codec.AllIndexes() for all.
	Indexes codec.IndexSet
	// CompressionThreshold is the content-block size above which LZ4
	// compression is applied. Zero uses codec.DefaultCompressionThreshold.
	CompressionThreshold int
	// ClusterCount is k for the vector cluster map. Zero uses index.DefaultClusterCount.
	ClusterCount int
	// Embedder converts node content into a feature vector on Add whenever
	// Dimension is nonzero. It defaults to embed.New(Dimension), and Create
	// replaces an Embedder whose Dimension differs from a nonzero Dimension
	// with embed.New(Dimension).
	Embedder embed.Embedder
	// Decay controls the half-life applied by Gaps' staleness check and by
	// any caller querying decay scores directly. Zero uses maintenance.DefaultDecayConfig.
	Decay maintenance.DecayConfig
}

// Option configures a Config at construction time via the shared
// functional-option builder (internal/options), matching spec §9's
// "configuration record ... each option has a stated effect; unknown
// fields are rejected" by only exposing named, validated setters.
type Option = options.Option[*Config]

// WithDimension sets the feature vector width for a newly created file.
func WithDimension(dim uint16) Option {
	return options.NoError[*Config](func(c *Config) { c.Dimension = dim })
}

// WithIndexes sets which auxiliary indexes are rebuilt on flush.
func WithIndexes(idx codec.IndexSet) Option {
	return options.NoError[*Config](func(c *Config) { c.Indexes = idx })
}

// WithCompressionThreshold sets the content-block compression threshold in bytes.
func WithCompressionThreshold(bytes int) Option {
	return options.NoError[*Config](func(c *Config) { c.CompressionThreshold = bytes })
}

// WithClusterCount sets k for the vector cluster map.
func WithClusterCount(k int) Option {
	return options.NoError[*Config](func(c *Config) { c.ClusterCount = k })
}

// WithEmbedder sets the embedding function new nodes' content is run
// through to produce their feature vector.
func WithEmbedder(e embed.Embedder) Option {
	return options.NoError[*Config](func(c *Config) { c.Embedder = e })
}

// WithDecayConfig sets the half-life used by decay scoring and staleness checks.
func WithDecayConfig(d maintenance.DecayConfig) Option {
	return options.NoError[*Config](func(c *Config) { c.Decay = d })
}

// defaultConfig returns a Config with every index enabled, the default
// compression threshold, and an Embedder matching dim.
func defaultConfig(dim uint16) Config {
	if dim == 0 {
		dim = embed.DefaultDimension
	}
	return Config{
		Dimension: dim,
		Indexes:   codec.AllIndexes(),
		Embedder:  embed.New(int(dim)),
		Decay:     maintenance.DefaultDecayConfig(),
	}
}

func (c Config) codecOptions() codec.Options {
	return codec.Options{
		Indexes:              c.Indexes,
		CompressionThreshold: c.CompressionThreshold,
		ClusterCount:         c.ClusterCount,
	}
}
