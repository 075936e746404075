// Package errs defines the sentinel errors returned by the amem file format
// codec, in-memory graph, and query engine.
//
// All errors are plain values created with errors.New so callers can compare
// with errors.Is after the concrete error has been wrapped with additional
// context via fmt.Errorf("...: %w", ...).
package errs

import "errors"

// Codec / file-format errors (§7 format-invalid, version-unsupported, truncated).
var (
	// ErrInvalidMagicNumber is returned when the file does not start with "AMEM".
	ErrInvalidMagicNumber = errors.New("amem: invalid magic number")
	// ErrInvalidHeaderSize is returned when fewer than 64 bytes are available for the header.
	ErrInvalidHeaderSize = errors.New("amem: invalid header size")
	// ErrReservedBytesNonZero is returned when the header's reserved region is not all zero.
	ErrReservedBytesNonZero = errors.New("amem: reserved header bytes must be zero")
	// ErrVersionUnsupported is returned when the header version exceeds the current maximum.
	ErrVersionUnsupported = errors.New("amem: unsupported file version")
	// ErrTruncated is returned when the file is shorter than the header's declared offsets, or the index block's chunk lengths, require.
	ErrTruncated = errors.New("amem: file truncated")
	// ErrInvalidNodeRecord is returned when a node record cannot be parsed.
	ErrInvalidNodeRecord = errors.New("amem: invalid node record")
	// ErrInvalidEdgeRecord is returned when an edge record cannot be parsed.
	ErrInvalidEdgeRecord = errors.New("amem: invalid edge record")
	// ErrInvalidIndexChunk is returned when a tagged index chunk's declared length overruns the index block.
	ErrInvalidIndexChunk = errors.New("amem: invalid index chunk")
	// ErrContentOffsetOutOfRange is returned when a content or metadata offset falls outside the decompressed content block.
	ErrContentOffsetOutOfRange = errors.New("amem: content offset out of range")
	// ErrFormatInvalid is the umbrella format-invalid error (§7) for
	// byte-level inconsistencies not covered by a more specific sentinel
	// above (e.g. declared offsets that don't match computed section sizes).
	ErrFormatInvalid = errors.New("amem: invalid file format")
)

// Mutation / query errors (§7 node-not-found, range-violation, cycle, dimension-mismatch).
var (
	// ErrNodeNotFound is returned when an operation references a node id that does not exist.
	ErrNodeNotFound = errors.New("amem: node not found")
	// ErrEdgeEndpointInvalid is returned when an edge's source or target does not resolve to an existing node.
	ErrEdgeEndpointInvalid = errors.New("amem: edge endpoint invalid")
	// ErrConfidenceOutOfRange is returned when a confidence value falls outside [0.0, 1.0].
	ErrConfidenceOutOfRange = errors.New("amem: confidence out of range")
	// ErrWeightOutOfRange is returned when an edge weight falls outside [0.0, 1.0].
	ErrWeightOutOfRange = errors.New("amem: weight out of range")
	// ErrContentTooLarge is returned when node content exceeds the configured maximum length.
	ErrContentTooLarge = errors.New("amem: content exceeds maximum length")
	// ErrCycle is returned when adding an edge would introduce a cycle into the supersedes subgraph.
	ErrCycle = errors.New("amem: supersedes cycle detected")
	// ErrDimensionMismatch is returned when a supplied feature vector's length does not match the file's declared dimension.
	ErrDimensionMismatch = errors.New("amem: vector dimension mismatch")
	// ErrIndexMissing indicates a requested index chunk is absent from a file. The mmapreader index accessors and ReadOnlyEngine.TextSearch return it wrapped; neither falls back to a linear scan.
	ErrIndexMissing = errors.New("amem: index missing")
	// ErrCancelled is returned when a caller-supplied abort signal fires mid-query.
	ErrCancelled = errors.New("amem: operation cancelled")
	// ErrClosed is returned when an operation is attempted on a closed engine or reader.
	ErrClosed = errors.New("amem: engine closed")
	// ErrUnknownOption is returned when a configuration option targets an unrecognized field.
	ErrUnknownOption = errors.New("amem: unknown configuration option")
)
