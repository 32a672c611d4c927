package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/embeddings"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

// Ingester embeds resume chunks and writes them to the vector store.
type Ingester struct {
	embedder embeddings.Embedder
	store    vector.Store
	owner    string
	logger   *zap.Logger
}

// Result summarizes one ingestion run.
type Result struct {
	Ingested int
	Skipped  int
	Sections map[Section]int
}

// NewIngester creates an ingester for the given owner's resume.
func NewIngester(embedder embeddings.Embedder, store vector.Store, owner string, logger *zap.Logger) *Ingester {
	return &Ingester{
		embedder: embedder,
		store:    store,
		owner:    owner,
		logger:   logger,
	}
}

// IngestFile reads a markdown resume from disk and ingests it.
func (i *Ingester) IngestFile(ctx context.Context, path string) (*Result, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume %s: %w", path, err)
	}
	return i.Ingest(ctx, string(text))
}

// Ingest chunks the markdown, validates and enriches each chunk, embeds the
// enriched form and stores everything. The embedding is computed over the
// contextual chunk while the stored content keeps the original text, so
// retrieval previews stay clean.
func (i *Ingester) Ingest(ctx context.Context, markdown string) (*Result, error) {
	raw := ChunkMarkdown(markdown)

	result := &Result{Sections: make(map[Section]int)}
	var chunks []vector.Chunk

	for idx, chunk := range raw {
		valid, reason := ValidateChunk(chunk)
		if !valid {
			i.logger.Debug("skipping chunk",
				zap.Int("index", idx),
				zap.String("reason", reason),
			)
			result.Skipped++
			continue
		}

		section := DetectSection(chunk)
		enriched := ContextualChunk(i.owner, chunk, section)

		embedding, err := i.embedder.Embed(ctx, enriched)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", idx, err)
		}

		chunks = append(chunks, vector.Chunk{
			ID:        uuid.NewString(),
			Content:   chunk,
			Embedding: embedding,
		})

		result.Sections[section]++
		i.logger.Debug("prepared chunk",
			zap.Int("index", idx),
			zap.String("section", string(section)),
			zap.Int("length", len(chunk)),
		)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("no valid chunks in resume")
	}

	// Re-ingestion replaces the corpus. Chunk IDs are fresh every run, so
	// without clearing first a second run would double every chunk. The
	// clear happens only after embedding succeeded, so a bad run never
	// leaves the store empty.
	if err := i.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing previous chunks: %w", err)
	}

	if err := i.store.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	result.Ingested = len(chunks)
	i.logger.Info("resume ingested",
		zap.Int("chunks", result.Ingested),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
