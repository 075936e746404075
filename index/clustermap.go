package index

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/agentmem/amem/endian"
	"github.com/agentmem/amem/errs"
	"github.com/agentmem/amem/graph"
)

// DefaultClusterCount is the default k for the cluster map (spec §4.4 tag 0x04).
const DefaultClusterCount = 64

const (
	kmeansMaxIterations = 50
	kmeansTolerance     = 1e-4
	kmeansSeed          = 1
)

// ClusterMap is a k-means partition of the graph's feature vectors (spec
// §4.4 tag 0x04), used to prune brute-force similarity search: `similar`
// scans only the members of the nearest √k centroids instead of every
// vector (spec §4.6).
//
// Grounded on xDarkicex/libravdb's internal/index/ivfpq coarse quantizer
// (k-means++ init, Lloyd assignment/update steps), reimplemented here
// against flat []float32 node vectors instead of libravdb's
// product-quantization codebooks.
type ClusterMap struct {
	Dimension   int
	Centroids   [][]float32 // len == K
	Assignments []int       // len == node count, cluster index per node
}

// BuildClusterMap runs k-means with k clusters (at most node count) over
// every node vector in g. Nodes without a vector are assigned to cluster
// -1 and are skipped by cluster-pruned similarity search, falling back to
// the brute-force path for them.
func BuildClusterMap(g *graph.Graph, dim, k int) ClusterMap {
	nodes := g.Nodes()

	var vecIdx []int
	var vectors [][]float32
	for _, n := range nodes {
		if n.HasVector() {
			vecIdx = append(vecIdx, int(n.ID))
			vectors = append(vectors, n.Vector)
		}
	}

	cm := ClusterMap{Dimension: dim, Assignments: make([]int, len(nodes))}
	for i := range cm.Assignments {
		cm.Assignments[i] = -1
	}
	if len(vectors) == 0 {
		return cm
	}
	if k <= 0 {
		k = DefaultClusterCount
	}
	if k > len(vectors) {
		k = len(vectors)
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := initCentroidsPlusPlus(vectors, k, rng)

	assign := make([]int, len(vectors))
	prevInertia := math.Inf(1)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		var totalInertia float64
		for i, v := range vectors {
			best, bestDist := 0, float32(math.Inf(1))
			for c, centroid := range centroids {
				d := sqDist(v, centroid)
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			assign[i] = best
			totalInertia += float64(bestDist)
		}

		if prevInertia != math.Inf(1) && math.Abs(prevInertia-totalInertia) < kmeansTolerance*math.Max(prevInertia, 1) {
			break
		}
		prevInertia = totalInertia

		centroids = updateCentroids(vectors, assign, k, dim)
	}

	cm.Centroids = centroids
	for i, v := range vecIdx {
		cm.Assignments[v] = assign[i]
	}
	return cm
}

func initCentroidsPlusPlus(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	centroids := make([][]float32, k)
	first := rng.Intn(len(vectors))
	centroids[0] = append([]float32(nil), vectors[first]...)

	for c := 1; c < k; c++ {
		distances := make([]float64, len(vectors))
		var total float64
		for i, v := range vectors {
			min := float32(math.Inf(1))
			for j := 0; j < c; j++ {
				d := sqDist(v, centroids[j])
				if d < min {
					min = d
				}
			}
			distances[i] = float64(min)
			total += distances[i]
		}
		if total == 0 {
			centroids[c] = append([]float32(nil), vectors[rng.Intn(len(vectors))]...)
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := len(vectors) - 1
		for i, d := range distances {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids[c] = append([]float32(nil), vectors[chosen]...)
	}
	return centroids
}

func updateCentroids(vectors [][]float32, assign []int, k, dim int) [][]float32 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assign[i]
		counts[c]++
		for d := 0; d < dim && d < len(v); d++ {
			sums[c][d] += float64(v[d])
		}
	}
	out := make([][]float32, k)
	for c := 0; c < k; c++ {
		out[c] = make([]float32, dim)
		if counts[c] == 0 {
			if i := randomNonEmptyVector(vectors); i != nil {
				copy(out[c], i)
			}
			continue
		}
		for d := 0; d < dim; d++ {
			out[c][d] = float32(sums[c][d] / float64(counts[c]))
		}
	}
	return out
}

func randomNonEmptyVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	return vectors[0]
}

func sqDist(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// NearestCentroids returns the indices of the n centroids closest to q,
// ascending by distance.
func (cm ClusterMap) NearestCentroids(q []float32, n int) []int {
	type scored struct {
		idx  int
		dist float32
	}
	scores := make([]scored, len(cm.Centroids))
	for i, c := range cm.Centroids {
		scores[i] = scored{idx: i, dist: sqDist(q, c)}
	}
	// simple selection sort over n; cluster counts are small (default 64)
	for i := 0; i < n && i < len(scores); i++ {
		min := i
		for j := i + 1; j < len(scores); j++ {
			if scores[j].dist < scores[min].dist {
				min = j
			}
		}
		scores[i], scores[min] = scores[min], scores[i]
	}
	if n > len(scores) {
		n = len(scores)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = scores[i].idx
	}
	return out
}

// Members returns every node id assigned to the given cluster index.
func (cm ClusterMap) Members(cluster int) []uint32 {
	var out []uint32
	for id, c := range cm.Assignments {
		if c == cluster {
			out = append(out, uint32(id))
		}
	}
	return out
}

// Encode serializes the cluster map as:
// k:u32, dim:u32, k*dim float32 centroids, node_count:u32, node_count int32 assignments.
func (cm ClusterMap) Encode() []byte {
	e := endian.GetLittleEndianEngine()
	k := len(cm.Centroids)
	dim := cm.Dimension
	n := len(cm.Assignments)

	out := make([]byte, 8+k*dim*4+4+n*4)
	e.PutUint32(out[0:4], uint32(k))
	e.PutUint32(out[4:8], uint32(dim))
	off := 8
	for _, c := range cm.Centroids {
		for d := 0; d < dim; d++ {
			var v float32
			if d < len(c) {
				v = c[d]
			}
			e.PutUint32(out[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	e.PutUint32(out[off:off+4], uint32(n))
	off += 4
	for _, a := range cm.Assignments {
		e.PutUint32(out[off:off+4], uint32(int32(a)))
		off += 4
	}
	return out
}

// DecodeClusterMap parses the payload produced by Encode.
func DecodeClusterMap(data []byte) (ClusterMap, error) {
	if len(data) < 8 {
		return ClusterMap{}, fmt.Errorf("decode cluster map: %w", errs.ErrInvalidIndexChunk)
	}
	e := endian.GetLittleEndianEngine()
	k := int(e.Uint32(data[0:4]))
	dim := int(e.Uint32(data[4:8]))
	off := 8
	need := off + k*dim*4 + 4
	if len(data) < need {
		return ClusterMap{}, fmt.Errorf("decode cluster map: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		centroids[c] = make([]float32, dim)
		for d := 0; d < dim; d++ {
			centroids[c][d] = math.Float32frombits(e.Uint32(data[off : off+4]))
			off += 4
		}
	}
	n := int(e.Uint32(data[off : off+4]))
	off += 4
	need = off + n*4
	if len(data) < need {
		return ClusterMap{}, fmt.Errorf("decode cluster map: need %d bytes, got %d: %w", need, len(data), errs.ErrInvalidIndexChunk)
	}
	assignments := make([]int, n)
	for i := 0; i < n; i++ {
		assignments[i] = int(int32(e.Uint32(data[off : off+4])))
		off += 4
	}
	return ClusterMap{Dimension: dim, Centroids: centroids, Assignments: assignments}, nil
}
