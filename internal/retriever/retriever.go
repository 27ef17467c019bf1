package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

// DefaultTopK is the number of chunks retrieved when the caller passes no
// explicit limit.
const DefaultTopK = 5

// Retriever chunks a document, indexes the chunk embeddings, and maps search
// hits back to chunk texts. Retrieval is best-effort: hits whose index falls
// outside the stored chunk range are dropped silently.
type Retriever struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	index    domain.VectorIndex

	chunks []domain.Chunk
	stored bool
}

func New(chunker domain.Chunker, embedder domain.Embedder, index domain.VectorIndex) *Retriever {
	return &Retriever{chunker: chunker, embedder: embedder, index: index}
}

// Store chunks the document text and rebuilds the index from it, replacing
// any prior content. A document with no sentences stores successfully and
// leaves retrieval returning no results.
func (r *Retriever) Store(ctx context.Context, documentText string) error {
	chunks, err := r.chunker.Chunk(domain.Document{Content: documentText})
	if err != nil {
		return fmt.Errorf("chunking document: %w", err)
	}
	if len(chunks) == 0 {
		logger.Debug("store: document produced no chunks")
		r.chunks = nil
		r.stored = true
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := r.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("preparing embedder: %w", err)
	}
	if err := r.index.Store(ctx, chunks); err != nil {
		return err
	}
	logger.Debug("store: indexed %d chunks", len(chunks))
	r.chunks = chunks
	r.stored = true
	return nil
}

// Retrieve returns the texts of the topK chunks most similar to the query,
// best first. An empty result is not an error; calling Retrieve before any
// successful Store is.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if !r.stored {
		return nil, domain.ErrIndexNotInitialized
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty query")
	}
	if len(r.chunks) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := r.index.Search(vec, topK)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(results))
	for _, res := range results {
		if res.ChunkIndex < 0 || res.ChunkIndex >= len(r.chunks) {
			logger.Debug("retrieve: dropping out-of-range chunk index %d", res.ChunkIndex)
			continue
		}
		texts = append(texts, r.chunks[res.ChunkIndex].Text)
	}
	return texts, nil
}
