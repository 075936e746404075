// Package index builds and decodes the six tagged index structures stored
// in the amem trailing index block (spec §4.4): type bitmap, session
// range, time index, vector cluster map, BM25 term index, and document
// lengths. Build functions consume a graph.Graph at flush time; decode
// functions are used by both the mmap reader (lazy, on first query use)
// and the roundtrip tests.
//
// The tagged chunk framing itself lives in package section, mirroring the
// teacher's split between section (byte layout) and higher-level index
// structures built on top of it.
package index
