// Package vector provides the vector store contract the retrieval pipeline
// depends on, plus shared result types and errors.
package vector

import "context"

// Chunk is an immutable unit of corpus text with its precomputed embedding.
// Chunks are written once at ingestion time and read-only afterwards.
type Chunk struct {
	// ID is a unique identifier assigned at ingestion.
	ID string

	// Content is the raw chunk text.
	Content string

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// QueryResult is a nearest-neighbor hit with its similarity score.
type QueryResult struct {
	ID      string
	Content string

	// Similarity is cosine similarity, higher is better. Stores that compute
	// distance convert before returning (similarity = 1 - distance).
	Similarity float64
}

// Store handles storage and retrieval of resume chunks.
type Store interface {
	// Add stores chunks with their embeddings. Chunks with an existing ID
	// are replaced.
	Add(ctx context.Context, chunks []Chunk) error

	// Nearest returns the k chunks closest to the given embedding, ordered
	// by descending similarity.
	Nearest(ctx context.Context, embedding []float32, k int) ([]QueryResult, error)

	// SearchSubstring returns the content of up to limit chunks containing
	// the pattern, case-insensitively.
	SearchSubstring(ctx context.Context, pattern string, limit int) ([]string, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear removes every stored chunk. Re-ingestion replaces the corpus
	// wholesale rather than accumulating stale copies.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
