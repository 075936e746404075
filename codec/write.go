package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentmem/amem/graph"
)

// WriteGraphFile encodes g and durably commits it to path using the
// temp-file/fsync/rename discipline spec §4.1 and §5 require: the file is
// fully assembled in memory, written to a sibling temporary file, fsynced,
// then renamed over the target. A reader never observes a partially
// written file because the rename is the only operation that makes the
// new bytes visible at path; a crash before the rename leaves the
// previous valid file (if any) untouched (spec §8 property 8).
func WriteGraphFile(path string, g *graph.Graph, opts Options) error {
	data, err := Encode(g, opts)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data to a temp file in the same directory as path,
// fsyncs it, then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("amem: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("amem: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("amem: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("amem: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("amem: rename temp file into place: %w", err)
	}
	return nil
}

// ReadFile reads path fully into memory without validating it; Parse and
// DecodeGraph validate the bytes.
// This is the non-mmap read path, used when callers want an owned copy
// of the file bytes (e.g. before passing to DecodeGraph).
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("amem: read file: %w", err)
	}
	return data, nil
}
