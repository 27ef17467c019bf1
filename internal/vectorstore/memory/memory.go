package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// Vectors are L2-normalized on the way in, so similarity is a plain inner
// product. Store replaces the whole index under the write lock; readers see
// either the previous index or the new one, never a partial rebuild.
type Index struct {
	embedder domain.Embedder

	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	texts     []string
}

func NewIndex(embedder domain.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Store embeds all chunks and swaps them in as the new index content.
// On any embedding or dimension failure the prior state is kept.
func (x *Index) Store(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	raw, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(raw) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(raw), len(chunks))
	}
	dimension := 0
	vectors := make([][]float64, len(raw))
	for i, v := range raw {
		if dimension == 0 {
			dimension = len(v)
		}
		if len(v) != dimension {
			return &domain.DimensionMismatchError{Want: dimension, Got: len(v)}
		}
		vectors[i] = normalize(v)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dimension = dimension
	x.vectors = vectors
	x.texts = texts
	return nil
}

// Search returns the topK stored chunks most similar to the query vector,
// in descending score order. topK is clamped to the stored count. Ties keep
// their stored order.
func (x *Index) Search(queryVector []float64, topK int) ([]domain.SearchResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.vectors == nil {
		return nil, domain.ErrIndexNotInitialized
	}
	if len(queryVector) != x.dimension {
		return nil, &domain.DimensionMismatchError{Want: x.dimension, Got: len(queryVector)}
	}
	query := normalize(queryVector)

	results := make([]domain.SearchResult, len(x.vectors))
	for i, v := range x.vectors {
		results[i] = domain.SearchResult{ChunkIndex: i, Score: dot(v, query)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Text returns the stored chunk text for a chunk index, if it exists.
func (x *Index) Text(chunkIndex int) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if chunkIndex < 0 || chunkIndex >= len(x.texts) {
		return "", false
	}
	return x.texts[chunkIndex], true
}

// Len reports the number of stored chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.texts)
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, f := range v {
		norm += f * f
	}
	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
