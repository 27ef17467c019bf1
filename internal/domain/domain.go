package domain

import "context"

// Document is the raw text of a single ingested source.
type Document struct {
	Source  string
	Content string
}

// Chunk is a bounded contiguous segment of a document used for indexing.
// Index is the 0-based position of the chunk within the document.
type Chunk struct {
	Index int
	Text  string
}

// SearchResult is a matching chunk index with its cosine similarity score.
type SearchResult struct {
	ChunkIndex int
	Score      float64
}

// Embedder converts free text into a fixed-dimension numeric vector.
// Local implementations may require a preparation phase over the corpus;
// remote implementations treat Prepare as a no-op and learn their dimension
// from the first embedding.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Generator produces a text continuation for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chunker splits a document into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorIndex stores chunk embeddings and supports similarity search.
// Store embeds every chunk and replaces prior content as a whole; on failure
// the previous index state is kept. Search returns the topK most similar
// stored chunks in descending score order.
type VectorIndex interface {
	Store(ctx context.Context, chunks []Chunk) error
	Search(queryVector []float64, topK int) ([]SearchResult, error)
}

// Retriever indexes a document and answers queries with the texts of the
// most similar chunks.
type Retriever interface {
	Store(ctx context.Context, documentText string) error
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Fetcher acquires the raw text of a document from a source identifier.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (Document, error)
}
