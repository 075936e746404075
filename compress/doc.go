// Package compress provides the compression codec used for the amem content
// block.
//
// The file format (spec §4.1, §6.1) recognizes exactly one compressed
// representation for the content block — LZ4 frame — selected when the raw
// block exceeds a configurable threshold (default 4 KiB) or compression is
// requested explicitly; otherwise the block is stored raw and the
// content-compressed header flag is left clear. The vector and index blocks
// are never compressed: they are read directly as byte-reinterpreted slices
// by the memory-mapped reader, which requires byte-exact, uncompressed
// layout.
package compress
