package mcp

import (
	"context"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/eventstream/nop"
	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/failover"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
	"github.com/resumeqa/resumeqa/pkg/rag"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

type stubEmbedder struct{}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

func (e *stubEmbedder) Close() error { return nil }

type stubStore struct {
	chunks []string
}

func (s *stubStore) Add(_ context.Context, _ []vector.Chunk) error { return nil }

func (s *stubStore) Nearest(_ context.Context, _ []float32, k int) ([]vector.QueryResult, error) {
	results := make([]vector.QueryResult, 0, len(s.chunks))
	for i, content := range s.chunks {
		if i >= k {
			break
		}
		results = append(results, vector.QueryResult{Content: content, Similarity: 0.8})
	}
	return results, nil
}

func (s *stubStore) SearchSubstring(_ context.Context, pattern string, limit int) ([]string, error) {
	var matches []string
	for _, content := range s.chunks {
		if strings.Contains(strings.ToLower(content), strings.ToLower(pattern)) {
			matches = append(matches, content)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

func (s *stubStore) Count(_ context.Context) (int, error) { return len(s.chunks), nil }

func (s *stubStore) Clear(_ context.Context) error { return nil }

func (s *stubStore) Close() error { return nil }

type stubStream struct {
	fragments []llm.Fragment
	pos       int
}

func (s *stubStream) Recv() (llm.Fragment, error) {
	if s.pos >= len(s.fragments) {
		return llm.Fragment{}, io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *stubStream) Close() error { return nil }

type stubProvider struct{}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Timeout() time.Duration { return time.Second }

func (p *stubProvider) Generate(_ context.Context, _ llm.Request) (llm.Stream, error) {
	return &stubStream{fragments: []llm.Fragment{{Text: "Sahil holds a B.Tech.", Done: true}}}, nil
}

func newTestPipeline() *rag.Pipeline {
	logger := zap.NewNop()
	chain, err := failover.New([]provider.Provider{&stubProvider{}}, logger)
	Expect(err).NotTo(HaveOccurred())

	store := &stubStore{chunks: []string{"Education: B.Tech CSE, CGPA 8.9"}}
	return rag.NewPipeline(&stubEmbedder{}, store, chain, nop.NewPublisher(), rag.Config{
		Owner:         "Sahil",
		TopK:          12,
		MinSimilarity: 0.22,
		ContextSize:   5,
		KeywordLimit:  3,
	}, logger)
}

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		var err error
		server, err = NewServer(Config{
			Pipeline: newTestPipeline(),
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("requires a pipeline unless noop", func() {
			_, err := NewServer(Config{Logger: zap.NewNop()})
			Expect(err).To(HaveOccurred())
		})

		It("builds an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		})

		It("exposes an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("ask tool", func() {
		It("returns the drained answer with metadata", func() {
			result, output, err := server.handleAsk(context.Background(), nil, AskInput{
				Question: "What is Sahil's CGPA?",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Answer).To(Equal("Sahil holds a B.Tech."))
			Expect(output.Metadata).NotTo(BeNil())
			Expect(output.Metadata.Confidence).To(Equal(rag.ConfidenceHigh))
		})

		It("rejects an empty question", func() {
			result, _, err := server.handleAsk(context.Background(), nil, AskInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("search tool", func() {
		It("returns retrieved passages without generating", func() {
			result, output, err := server.handleSearch(context.Background(), nil, SearchInput{
				Query: "cgpa",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Count).To(BeNumerically(">=", 1))
			Expect(output.Results[0].Content).To(ContainSubstring("CGPA"))
		})
	})
})
