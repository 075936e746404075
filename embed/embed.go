// Package embed implements the deterministic, dependency-free text→vector
// function required by spec §4.5: a hashed-feature model seeded by two
// independent draws from internal/hash, grounded on the teacher's (mebo)
// internal/hash use of github.com/cespare/xxhash/v2 for collision-resistant
// identifiers, generalized here from "hash a name to an id" to "hash a
// token to a (component, sign) pair".
package embed

import (
	"math"

	"github.com/agentmem/amem/internal/hash"
	"github.com/agentmem/amem/internal/tokenize"
)

// signSeed and indexSeed salt the two independent hash functions so that
// the component index and the sign bit are drawn from uncorrelated hash
// streams even though both derive from the same token string.
const (
	indexSeed = "amem-embed-index"
	signSeed  = "amem-embed-sign"
)

// Embedder produces a fixed-dimension feature vector for a piece of text.
// The zero value uses the default hashed-feature model.
type Embedder struct {
	// Dimension is the output vector length. Must match the file's
	// declared dimension (spec §4.5); defaults to 128 if zero.
	Dimension int
}

// Default dimension used when an Embedder is constructed without an
// explicit override, matching format.DefaultDimension.
const DefaultDimension = 128

// New creates an Embedder for the given dimension. dim <= 0 uses DefaultDimension.
func New(dim int) Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return Embedder{Dimension: dim}
}

// Embed tokenizes text with the shared §4.4 tokenizer and accumulates a
// hashed-feature vector: each token selects a component index via one
// hash and a sign (±1) via a second, independent hash, and its value is
// added into that component. The result is L2-normalized.
func (e Embedder) Embed(text string) []float32 {
	dim := e.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	vec := make([]float64, dim)

	for _, tok := range tokenize.Tokens(text) {
		idx := hashToIndex(tok, dim)
		sign := hashToSign(tok)
		vec[idx] += sign
	}

	return l2Normalize(vec)
}

func hashToIndex(token string, dim int) int {
	h := hash.ID(indexSeed + token)
	return int(h % uint64(dim))
}

func hashToSign(token string) float64 {
	h := hash.ID(signSeed + token)
	if h&1 == 0 {
		return 1
	}
	return -1
}

func l2Normalize(v []float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	out := make([]float32, len(v))
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
