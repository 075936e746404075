// Package codec implements the amem file format codec (spec §4.1, §6.1):
// encoding an in-memory graph.Graph into the byte-exact container and
// decoding it back, including the header-last atomic write discipline.
// Layout constants and record encodings live in package section; codec
// orchestrates them plus the content compressor (package compress) and
// the index builders (package index).
package codec

// IndexSet controls which optional index structures Encode builds into
// the trailing index block (spec §9 "Builder / config pattern": "whether
// to build each index (type, session, time, cluster, term, doc-length)").
type IndexSet struct {
	TypeBitmap   bool
	SessionRange bool
	TimeIndex    bool
	ClusterMap   bool
	TermIndex    bool
	DocLengths   bool
}

// AllIndexes returns an IndexSet with every index enabled.
func AllIndexes() IndexSet {
	return IndexSet{true, true, true, true, true, true}
}

// Any reports whether at least one index is enabled.
func (s IndexSet) Any() bool {
	return s.TypeBitmap || s.SessionRange || s.TimeIndex || s.ClusterMap || s.TermIndex || s.DocLengths
}

// Options controls Encode's behavior beyond what is implied by the graph itself.
type Options struct {
	Indexes IndexSet
	// CompressionThreshold is the raw content-block size above which LZ4
	// compression is applied (spec §4.1 default 4 KiB). Zero uses the default.
	CompressionThreshold int
	// ForceCompress compresses the content block regardless of its size.
	ForceCompress bool
	// ClusterCount is k for the cluster map. Zero uses index.DefaultClusterCount.
	ClusterCount int
}

// DefaultCompressionThreshold is applied when Options.CompressionThreshold is zero.
const DefaultCompressionThreshold = 4096

func (o Options) threshold() int {
	if o.CompressionThreshold > 0 {
		return o.CompressionThreshold
	}
	return DefaultCompressionThreshold
}

// DefaultOptions builds every index and compresses above the default threshold.
func DefaultOptions() Options {
	return Options{Indexes: AllIndexes()}
}
