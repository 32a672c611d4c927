package vector

import "errors"

var (
	// ErrNotFound is returned when a chunk is not found in the store.
	ErrNotFound = errors.New("chunk not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensionMismatch is returned when an embedding's dimension does
	// not match the store schema.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
