package section_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/section"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := section.Header{
		Version:             format.CurrentVersion,
		Flags:               format.FlagHasVectors | format.FlagHasIndexes,
		NodeCount:           3,
		EdgeCount:           2,
		Dimension:           128,
		SessionCount:        1,
		ContentOffset:       64 + 3*section.NodeRecordSize + 2*section.EdgeRecordSize,
		ContentLength:       100,
		VectorOffset:        9999,
		IndexOffset:         20000,
		ContentUncompressed: 200,
	}

	got, err := section.ParseHeader(h.Bytes())
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.True(t, got.HasVectors())
	assert.True(t, got.HasIndexes())
	assert.False(t, got.ContentCompressed())
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	b := section.Header{Version: 1}.Bytes()
	b[0] = 'X'
	_, err := section.ParseHeader(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
}

func TestHeaderRejectsShortBuffer(t *testing.T) {
	_, err := section.ParseHeader(make([]byte, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}

func TestHeaderRejectsNonZeroReserved(t *testing.T) {
	b := section.Header{Version: 1}.Bytes()
	b[60] = 1
	_, err := section.ParseHeader(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrReservedBytesNonZero)
}

func TestHeaderRejectsFutureVersion(t *testing.T) {
	b := section.Header{Version: format.CurrentVersion + 1}.Bytes()
	_, err := section.ParseHeader(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrVersionUnsupported)
}

func TestNodeRecordRoundTrip(t *testing.T) {
	r := section.NodeRecord{
		EventKind:      uint8(format.EventDecision),
		Session:        7,
		Confidence:     0.875,
		Timestamp:      1_700_000_000,
		ContentOffset:  10,
		ContentLength:  42,
		VectorOffset:   section.NoVector,
		MetadataOffset: 500,
		MetadataLength: 12,
	}

	got, err := section.ParseNodeRecord(r.Bytes())
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.False(t, got.HasVector())
	assert.True(t, got.HasMetadata())
}

func TestEdgeRecordRoundTrip(t *testing.T) {
	r := section.EdgeRecord{Source: 1, Target: 2, EdgeKind: uint8(format.EdgeSupports), Weight: 0.5}
	got, err := section.ParseEdgeRecord(r.Bytes())
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Len(t, r.Bytes(), section.EdgeRecordSize)
}

func TestIndexChunksRoundTrip(t *testing.T) {
	chunks := []section.IndexChunk{
		{Tag: format.IndexTagTypeBitmap, Payload: []byte{1, 2, 3}},
		{Tag: format.IndexTagTimeIndex, Payload: []byte{9, 9}},
	}
	encoded := section.EncodeIndexChunks(chunks)

	got, err := section.DecodeIndexChunks(encoded)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0].Tag, got[0].Tag)
	assert.Equal(t, chunks[0].Payload, got[0].Payload)

	found, ok := section.Find(got, format.IndexTagTimeIndex)
	require.True(t, ok)
	assert.Equal(t, []byte{9, 9}, found.Payload)

	_, ok = section.Find(got, format.IndexTagClusterMap)
	assert.False(t, ok)
}

func TestIndexChunksSkipsUnknownTag(t *testing.T) {
	chunks := []section.IndexChunk{
		{Tag: format.IndexTag(0xFF), Payload: []byte{1, 2, 3, 4}},
		{Tag: format.IndexTagDocLengths, Payload: []byte{5}},
	}
	got, err := section.DecodeIndexChunks(section.EncodeIndexChunks(chunks))
	require.NoError(t, err)
	require.Len(t, got, 2)
	found, ok := section.Find(got, format.IndexTagDocLengths)
	require.True(t, ok)
	assert.Equal(t, []byte{5}, found.Payload)
}

func TestIndexChunksRejectsOverrun(t *testing.T) {
	data := make([]byte, 8)
	data[4] = 255 // declared length 255, far beyond buffer
	_, err := section.DecodeIndexChunks(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidIndexChunk)
}
