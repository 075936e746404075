// Package section implements the fixed-layout regions of the amem file
// format (spec §6.1): the 64-byte header, 64-byte node records, and
// 13-byte edge records, plus the tagged index-block chunk framing
// consumed by the index package. Layout follows the teacher's
// section/numeric_header.go and section/numeric_index_entry.go: a Parse
// method for reading from a byte slice and a Bytes method for encoding,
// both going through the little-endian engine so the wire format is
// explicit rather than relying on unsafe struct layout.
package section

const (
	// HeaderSize is the fixed byte length of the file header.
	HeaderSize = 64
	// NodeRecordSize is the fixed byte length of one node record.
	NodeRecordSize = 64
	// EdgeRecordSize is the fixed byte length of one edge record.
	EdgeRecordSize = 13

	// NoVector is the sentinel vector_offset value meaning "no vector".
	NoVector uint64 = ^uint64(0)
	// NoMetadata is the sentinel metadata_offset value meaning "no metadata".
	NoMetadata uint64 = ^uint64(0)
)
