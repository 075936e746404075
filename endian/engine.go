// Package endian provides the byte-order engine used by the amem file codec.
//
// The on-disk format is little-endian only (spec §6.1), but section and codec
// code is written against the EndianEngine interface rather than calling
// encoding/binary directly, matching the teacher's separation of "which bytes"
// from "how they're read" and leaving room for a big-endian engine if a future
// format revision needs one.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary into
// a single interface, satisfied by binary.LittleEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine mandated by the file format.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
