package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/embeddings"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

// dedupePrefixLen is the number of leading characters (after trimming) used
// to decide that two passages are the same chunk.
const dedupePrefixLen = 100

// Retriever combines substring and vector similarity search into one ranked,
// de-duplicated candidate list.
type Retriever struct {
	embedder     embeddings.Embedder
	store        vector.Store
	keywordLimit int
	logger       *zap.Logger
}

// NewRetriever creates a hybrid retriever. keywordLimit caps matches per
// extracted keyword to bound substring-search cost.
func NewRetriever(embedder embeddings.Embedder, store vector.Store, keywordLimit int, logger *zap.Logger) *Retriever {
	if keywordLimit <= 0 {
		keywordLimit = 3
	}
	return &Retriever{
		embedder:     embedder,
		store:        store,
		keywordLimit: keywordLimit,
		logger:       logger,
	}
}

// Retrieve runs both search paths and merges their results, truncated to
// topK. Each path fails independently: an embedding or store error on one
// path is logged and contributes an empty list, leaving the other path's
// results intact.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) []Candidate {
	keyword := r.searchKeyword(ctx, question)
	vec := r.searchVector(ctx, question, topK)
	return mergeCandidates(keyword, vec, topK)
}

func (r *Retriever) searchVector(ctx context.Context, question string, topK int) []Candidate {
	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		r.logger.Warn("embedding question failed, skipping vector path", zap.Error(err))
		return nil
	}

	results, err := r.store.Nearest(ctx, embedding, topK)
	if err != nil {
		r.logger.Warn("vector search failed", zap.Error(err))
		return nil
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, Candidate{
			Content: res.Content,
			Score:   res.Similarity,
			Origin:  OriginVector,
		})
	}
	return candidates
}

func (r *Retriever) searchKeyword(ctx context.Context, question string) []Candidate {
	keywords := ExtractKeywords(question)
	if len(keywords) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, keyword := range keywords {
		matches, err := r.store.SearchSubstring(ctx, keyword, r.keywordLimit)
		if err != nil {
			r.logger.Warn("keyword search failed",
				zap.String("keyword", keyword),
				zap.Error(err),
			)
			continue
		}
		for _, content := range matches {
			candidates = append(candidates, Candidate{
				Content: content,
				Score:   1.0,
				Origin:  OriginKeyword,
			})
		}
	}
	return candidates
}

// mergeCandidates builds the final ordered list: keyword candidates first in
// discovery order, then vector candidates that do not duplicate an existing
// entry. Two passages duplicate each other when their trimmed content agrees
// on the first dedupePrefixLen characters.
func mergeCandidates(keyword, vec []Candidate, topK int) []Candidate {
	seen := make(map[string]struct{}, len(keyword)+len(vec))
	merged := make([]Candidate, 0, len(keyword)+len(vec))

	add := func(c Candidate) {
		key := contentKey(c.Content)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, c)
	}

	for _, c := range keyword {
		add(c)
	}
	for _, c := range vec {
		add(c)
	}

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

// contentKey is the duplicate-test prefix. Truncation counts runes so a
// multibyte character on the boundary is never split.
func contentKey(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) > dedupePrefixLen {
		runes = runes[:dedupePrefixLen]
	}
	return string(runes)
}
