package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Codec compresses the content block using the LZ4 frame format (spec
// §4.1 "LZ4-frame-compressed"). Decompress reads the frame to its end, so
// it does not need a caller-supplied output length hint.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

// NewLZ4Codec creates an LZ4 frame codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress writes data through an LZ4 frame writer and returns the framed output.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reads an LZ4 frame and returns the original bytes.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}

	return out, nil
}
