// Package format defines the wire-level enumerations and constants shared by
// the amem file codec: event kinds, edge kinds, and header flag bits.
//
// Values at or above the known maxima are reserved for forward compatibility;
// readers must treat them as opaque rather than rejecting the file (spec §6.2,
// §8 property 9).
package format

// EventKind identifies the kind of cognitive event a node represents.
type EventKind uint8

const (
	EventFact       EventKind = 0
	EventDecision   EventKind = 1
	EventInference  EventKind = 2
	EventCorrection EventKind = 3
	EventSkill      EventKind = 4
	EventEpisode    EventKind = 5

	// maxKnownEventKind is the highest EventKind this implementation assigns meaning to.
	// Values above it round-trip but are reported as "unknown" by String.
	maxKnownEventKind = EventEpisode
)

// String returns the lower-case event kind name, or "unknown" for reserved values.
func (e EventKind) String() string {
	switch e {
	case EventFact:
		return "fact"
	case EventDecision:
		return "decision"
	case EventInference:
		return "inference"
	case EventCorrection:
		return "correction"
	case EventSkill:
		return "skill"
	case EventEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// Known reports whether e is one of the six event kinds defined by this version of the format.
func (e EventKind) Known() bool {
	return e <= maxKnownEventKind
}

// EdgeKind identifies the semantic relation an edge expresses between two nodes.
type EdgeKind uint8

const (
	EdgeCausedBy     EdgeKind = 0
	EdgeSupports     EdgeKind = 1
	EdgeContradicts  EdgeKind = 2
	EdgeSupersedes   EdgeKind = 3
	EdgeRelatedTo    EdgeKind = 4
	EdgePartOf       EdgeKind = 5
	EdgeTemporalNext EdgeKind = 6

	maxKnownEdgeKind = EdgeTemporalNext
)

// String returns the edge kind name, or "unknown" for reserved values.
func (k EdgeKind) String() string {
	switch k {
	case EdgeCausedBy:
		return "caused-by"
	case EdgeSupports:
		return "supports"
	case EdgeContradicts:
		return "contradicts"
	case EdgeSupersedes:
		return "supersedes"
	case EdgeRelatedTo:
		return "related-to"
	case EdgePartOf:
		return "part-of"
	case EdgeTemporalNext:
		return "temporal-next"
	default:
		return "unknown"
	}
}

// Known reports whether k is one of the seven edge kinds defined by this version of the format.
func (k EdgeKind) Known() bool {
	return k <= maxKnownEdgeKind
}

// Direction controls which adjacency lists a traversal follows.
type Direction uint8

const (
	DirectionForward  Direction = iota // follow outgoing edges
	DirectionBackward                  // follow incoming edges
	DirectionBoth                      // follow both
)

// Header flag bits (§6.1).
const (
	FlagHasVectors        uint16 = 1 << 0
	FlagHasIndexes        uint16 = 1 << 1
	FlagContentCompressed uint16 = 1 << 2

	flagKnownMask = FlagHasVectors | FlagHasIndexes | FlagContentCompressed
)

// UnknownFlags returns the bits of flags set above the set this implementation understands.
// Per §4.1, unknown flag bits are a non-fatal warning, not a read failure.
func UnknownFlags(flags uint16) uint16 {
	return flags &^ flagKnownMask
}

// Magic is the fixed 4-byte file signature required at offset 0.
var Magic = [4]byte{'A', 'M', 'E', 'M'}

// CurrentVersion is the highest file format version this implementation writes and reads.
const CurrentVersion uint16 = 1

// DefaultDimension is the feature vector width used when a file is created without an explicit dimension.
const DefaultDimension = 128

// IndexTag identifies a tagged region within the trailing index block (§4.4).
type IndexTag uint32

const (
	IndexTagTypeBitmap   IndexTag = 0x01
	IndexTagSessionRange IndexTag = 0x02
	IndexTagTimeIndex    IndexTag = 0x03
	IndexTagClusterMap   IndexTag = 0x04
	IndexTagTermIndex    IndexTag = 0x05
	IndexTagDocLengths   IndexTag = 0x06
)
