package rag_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/rag"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

var _ = Describe("Retriever", func() {
	var (
		embedder *fakeEmbedder
		store    *fakeStore
		logger   *zap.Logger
	)

	BeforeEach(func() {
		embedder = &fakeEmbedder{}
		store = &fakeStore{}
		logger = zap.NewNop()
	})

	newRetriever := func() *rag.Retriever {
		return rag.NewRetriever(embedder, store, 3, logger)
	}

	It("includes a verbatim keyword term's chunk with keyword origin and score 1.0", func() {
		store.chunks = []string{"Education: B.Tech, CGPA 8.9/10"}

		candidates := newRetriever().Retrieve(context.Background(), "What is Sahil's CGPA?", 12)

		var found *rag.Candidate
		for i := range candidates {
			if strings.Contains(candidates[i].Content, "CGPA") {
				found = &candidates[i]
				break
			}
		}

		Expect(found).NotTo(BeNil())
		Expect(found.Origin).To(Equal(rag.OriginKeyword))
		Expect(found.Score).To(Equal(1.0))
	})

	It("merges a chunk surfaced by both paths into one keyword-origin entry", func() {
		shared := "Projects: Image forgery detection using deep learning"
		store.chunks = []string{shared}
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: shared, Similarity: 0.8},
		}

		candidates := newRetriever().Retrieve(context.Background(), "Tell me about the forgery project", 12)

		count := 0
		for _, c := range candidates {
			if c.Content == shared {
				count++
				Expect(c.Origin).To(Equal(rag.OriginKeyword))
			}
		}
		Expect(count).To(Equal(1))
	})

	It("treats passages sharing a 100-character prefix as duplicates", func() {
		prefix := strings.Repeat("x", 100)
		store.chunks = []string{prefix + " keyword tail"}
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: prefix + " different vector tail", Similarity: 0.9},
		}

		// "keyword" matches the stored chunk; "tail" matches it again.
		candidates := newRetriever().Retrieve(context.Background(), "keyword tail", 12)

		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].Origin).To(Equal(rag.OriginKeyword))
	})

	It("compares duplicate prefixes by rune with multibyte content", func() {
		prefix := strings.Repeat("é", 100)
		store.chunks = []string{prefix + " keyword tail"}
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: prefix + " different vector tail", Similarity: 0.9},
		}

		candidates := newRetriever().Retrieve(context.Background(), "keyword tail", 12)

		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].Origin).To(Equal(rag.OriginKeyword))
	})

	It("orders keyword candidates ahead of vector candidates", func() {
		store.chunks = []string{"Skills: Python, Go"}
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: "Summary: Software engineer", Similarity: 0.7},
		}

		candidates := newRetriever().Retrieve(context.Background(), "python skills", 12)

		Expect(len(candidates)).To(BeNumerically(">=", 2))
		Expect(candidates[0].Origin).To(Equal(rag.OriginKeyword))
	})

	It("truncates the merged list to topK", func() {
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: "chunk one", Similarity: 0.9},
			{ID: "2", Content: "chunk two", Similarity: 0.8},
			{ID: "3", Content: "chunk three", Similarity: 0.7},
		}

		candidates := newRetriever().Retrieve(context.Background(), "zzz", 2)
		Expect(candidates).To(HaveLen(2))
	})

	It("still runs the keyword path when embedding fails", func() {
		embedder.failing = true
		store.chunks = []string{"Certifications: AWS Solutions Architect"}

		candidates := newRetriever().Retrieve(context.Background(), "aws certifications", 12)

		Expect(candidates).NotTo(BeEmpty())
		Expect(candidates[0].Origin).To(Equal(rag.OriginKeyword))
	})

	It("still runs the vector path when substring search fails", func() {
		store.keywordErr = errors.New("store down")
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: "Experience: backend intern", Similarity: 0.6},
		}

		candidates := newRetriever().Retrieve(context.Background(), "experience internships", 12)

		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].Origin).To(Equal(rag.OriginVector))
	})

	It("returns nothing when both paths fail", func() {
		store.keywordErr = errors.New("down")
		store.nearestErr = errors.New("down")

		candidates := newRetriever().Retrieve(context.Background(), "projects", 12)
		Expect(candidates).To(BeEmpty())
	})

	It("skips the substring search entirely for an empty keyword set", func() {
		store.nearest = []vector.QueryResult{
			{ID: "1", Content: "Summary: engineer", Similarity: 0.5},
		}

		candidates := newRetriever().Retrieve(context.Background(), "What is the", 12)

		Expect(store.keywordHits).To(BeZero())
		Expect(candidates).To(HaveLen(1))
	})
})
