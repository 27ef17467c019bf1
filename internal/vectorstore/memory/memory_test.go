package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

// fakeEmbedder maps texts to canned vectors and can be told to fail.
type fakeEmbedder struct {
	vectors map[string][]float64
	fail    error
	calls   int
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Prepare(corpus []string) error { return nil }

func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.vectors[text], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Index: i, Text: t}
	}
	return out
}

func TestSearch_BeforeStore(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{})

	_, err := idx.Search([]float64{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrIndexNotInitialized)
}

func TestStore_ThenSearchRanksByCosine(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
		"gamma": {0.9, 0.1, 0},
	}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("alpha", "beta", "gamma")))

	results, err := idx.Search([]float64{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, 2, results[1].ChunkIndex)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_ScoresAreNonIncreasingAndInRange(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"a": {1, 2, 3},
		"b": {-1, 0, 1},
		"c": {0.5, 0.5, 0.5},
		"d": {-3, -2, -1},
	}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a", "b", "c", "d")))

	results, err := idx.Search([]float64{2, 2, 2}, 4)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Score, -1.0-1e-9)
		assert.LessOrEqual(t, r.Score, 1.0+1e-9)
		assert.GreaterOrEqual(t, r.ChunkIndex, 0)
		assert.Less(t, r.ChunkIndex, 4)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score)
		}
	}
}

func TestSearch_TopKClampedToStoredCount(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a", "b")))

	results, err := idx.Search([]float64{1, 1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_Deterministic(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"a": {1, 0, 0},
		"b": {1, 0, 0}, // exact tie with a
		"c": {0, 1, 0},
	}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a", "b", "c")))

	first, err := idx.Search([]float64{1, 0, 0}, 3)
	require.NoError(t, err)
	second, err := idx.Search([]float64{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// tied scores keep stored order
	assert.Equal(t, 0, first[0].ChunkIndex)
	assert.Equal(t, 1, first[1].ChunkIndex)
}

func TestStore_EmbedFailureKeepsPriorState(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
	}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a", "b")))

	emb.fail = errors.New("embedding backend down")
	err := idx.Store(context.Background(), chunks("x", "y", "z"))
	require.Error(t, err)

	// prior index still answers queries
	emb.fail = nil
	results, err := idx.Search([]float64{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, 2, idx.Len())
}

func TestStore_DimensionMismatchRejected(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1}, // wrong dimension
	}}
	idx := NewIndex(emb)

	err := idx.Store(context.Background(), chunks("a", "b"))
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Want)
	assert.Equal(t, 2, mismatch.Got)

	_, err = idx.Search([]float64{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexNotInitialized)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{"a": {1, 0, 0}}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a")))

	_, err := idx.Search([]float64{1, 0}, 1)
	var mismatch *domain.DimensionMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestText_BoundsChecked(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{"a": {1, 0, 0}}}
	idx := NewIndex(emb)
	require.NoError(t, idx.Store(context.Background(), chunks("a")))

	text, ok := idx.Text(0)
	require.True(t, ok)
	assert.Equal(t, "a", text)

	_, ok = idx.Text(1)
	assert.False(t, ok)
	_, ok = idx.Text(-1)
	assert.False(t, ok)
}
