package rag_test

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/eventstream"
	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/failover"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
	"github.com/resumeqa/resumeqa/pkg/rag"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

// capturePublisher records published events on a channel for assertions on
// the asynchronous observability write.
type capturePublisher struct {
	events chan *eventstream.QueryAnsweredEvent
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan *eventstream.QueryAnsweredEvent, 1)}
}

func (p *capturePublisher) PublishQuery(_ context.Context, event *eventstream.QueryAnsweredEvent) error {
	p.events <- event
	return nil
}

func (p *capturePublisher) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	var (
		embedder  *fakeEmbedder
		store     *fakeStore
		publisher *capturePublisher
		logger    *zap.Logger
		cfg       rag.Config
	)

	BeforeEach(func() {
		embedder = &fakeEmbedder{}
		store = &fakeStore{}
		publisher = newCapturePublisher()
		logger = zap.NewNop()
		cfg = rag.Config{
			Owner:         "Sahil",
			TopK:          12,
			MinSimilarity: 0.22,
			ContextSize:   5,
			KeywordLimit:  3,
		}
	})

	newPipeline := func(providers ...provider.Provider) *rag.Pipeline {
		chain, err := failover.New(providers, logger)
		Expect(err).NotTo(HaveOccurred())
		return rag.NewPipeline(embedder, store, chain, publisher, cfg, logger)
	}

	drainEvents := func(pipeline *rag.Pipeline, question string, mode rag.Tone) []rag.Event {
		var out []rag.Event
		for event := range pipeline.Answer(context.Background(), question, "203.0.113.7", mode) {
			out = append(out, event)
		}
		return out
	}

	Describe("casual greetings", func() {
		It("answers with the canned response without touching retrieval or providers", func() {
			p := &scriptedProvider{name: "ollama"}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "Hi!", rag.ToneAuto)

			Expect(events).To(HaveLen(1))
			Expect(events[0].AnswerChunk).To(ContainSubstring("Sahil's assistant"))
			Expect(events[0].Metadata).To(BeNil())
			Expect(store.nearestHits).To(BeZero())
			Expect(store.keywordHits).To(BeZero())
			Expect(p.calls).To(BeZero())
		})
	})

	Describe("insufficient grounding", func() {
		It("short-circuits generation with the fixed message and nil metadata", func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "irrelevant", Similarity: 0.1},
			}
			p := &scriptedProvider{name: "ollama"}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "zzzz qqqq", rag.ToneAuto)

			Expect(events).To(HaveLen(1))
			Expect(events[0].AnswerChunk).To(Equal(rag.InsufficientGroundingMessage("Sahil")))
			Expect(events[0].Metadata).To(BeNil())
			Expect(p.calls).To(BeZero())
		})
	})

	Describe("successful answers", func() {
		BeforeEach(func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "Education: B.Tech CSE, CGPA 8.9", Similarity: 0.8},
			}
		})

		It("streams fragments and ends with exactly one metadata event", func() {
			p := &scriptedProvider{
				name: "ollama",
				fragments: []llm.Fragment{
					{Text: "Sahil holds "},
					{Text: "a B.Tech.", Done: true},
				},
			}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "zzzz education zzzz", rag.ToneAuto)

			var text string
			metadataCount := 0
			for _, e := range events {
				text += e.AnswerChunk
				if e.Metadata != nil {
					metadataCount++
				}
			}

			Expect(text).To(Equal("Sahil holds a B.Tech."))
			Expect(metadataCount).To(Equal(1))
			Expect(events[len(events)-1].Metadata).NotTo(BeNil())
		})

		It("derives sources from the context window", func() {
			p := &scriptedProvider{
				name:      "ollama",
				fragments: []llm.Fragment{{Text: "ok", Done: true}},
			}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "zzzz zzzz", rag.ToneAuto)
			metadata := events[len(events)-1].Metadata

			Expect(metadata.Sources).To(HaveLen(1))
			Expect(metadata.Sources[0].Section).To(Equal("Education"))
			Expect(metadata.Sources[0].Relevance).To(Equal("80%"))
			Expect(metadata.Sources[0].Preview).To(HaveSuffix("..."))
			Expect(metadata.Confidence).To(Equal(rag.ConfidenceHigh))
			Expect(metadata.TotalChunks).To(Equal(1))
		})

		It("keeps multibyte characters intact in previews", func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "Education: " + strings.Repeat("é", 200), Similarity: 0.8},
			}

			p := &scriptedProvider{
				name:      "ollama",
				fragments: []llm.Fragment{{Text: "ok", Done: true}},
			}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "zzzz zzzz", rag.ToneAuto)
			preview := events[len(events)-1].Metadata.Sources[0].Preview

			Expect(utf8.ValidString(preview)).To(BeTrue())
			Expect(preview).To(HaveSuffix("é..."))
		})

		It("resolves auto mode and reports it in the metadata", func() {
			p := &scriptedProvider{
				name:      "ollama",
				fragments: []llm.Fragment{{Text: "ok", Done: true}},
			}
			pipeline := newPipeline(p)

			events := drainEvents(pipeline, "zzzz hire zzzz", rag.ToneAuto)
			metadata := events[len(events)-1].Metadata

			Expect(metadata.Mode).To(Equal(rag.ToneRecruiter))
		})

		It("publishes an observability event fire-and-forget", func() {
			p := &scriptedProvider{
				name:      "ollama",
				fragments: []llm.Fragment{{Text: "ok", Done: true}},
			}
			pipeline := newPipeline(p)

			drainEvents(pipeline, "zzzz zzzz", rag.ToneAuto)

			var event *eventstream.QueryAnsweredEvent
			Eventually(publisher.events).Should(Receive(&event))
			Expect(event.Provider).To(Equal("ollama"))
			Expect(event.Confidence).To(Equal("high"))
			Expect(event.CallerIP).To(Equal("203.0.113.7"))
			Expect(event.Question).To(Equal("zzzz zzzz"))
		})
	})

	Describe("provider fallback", func() {
		It("attributes the answer to the first provider that streams", func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "Education: B.Tech CSE", Similarity: 0.8},
			}
			failing := &scriptedProvider{name: "ollama", err: errors.New("down")}
			working := &scriptedProvider{
				name:      "openai",
				fragments: []llm.Fragment{{Text: "from openai", Done: true}},
			}
			pipeline := newPipeline(failing, working)

			events := drainEvents(pipeline, "zzzz zzzz", rag.ToneAuto)

			var text string
			for _, e := range events {
				text += e.AnswerChunk
			}
			Expect(text).To(Equal("from openai"))

			var event *eventstream.QueryAnsweredEvent
			Eventually(publisher.events).Should(Receive(&event))
			Expect(event.Provider).To(Equal("openai"))
		})

		It("emits the unavailable message without metadata when every provider fails", func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "Education: B.Tech CSE", Similarity: 0.8},
			}
			pipeline := newPipeline(
				&scriptedProvider{name: "ollama", err: errors.New("down")},
				&scriptedProvider{name: "openai", err: errors.New("down")},
			)

			events := drainEvents(pipeline, "zzzz zzzz", rag.ToneAuto)

			var text string
			for _, e := range events {
				Expect(e.Metadata).To(BeNil())
				text += e.AnswerChunk
			}
			Expect(text).To(Equal(failover.UnavailableMessage))
			Consistently(publisher.events).ShouldNot(Receive())
		})
	})

	Describe("Retrieve", func() {
		It("returns filtered candidates without generation", func() {
			store.nearest = []vector.QueryResult{
				{ID: "1", Content: "strong", Similarity: 0.8},
				{ID: "2", Content: "weak", Similarity: 0.1},
			}
			pipeline := newPipeline(&scriptedProvider{name: "ollama"})

			candidates := pipeline.Retrieve(context.Background(), "zzzz zzzz")

			Expect(candidates).To(HaveLen(1))
			Expect(candidates[0].Content).To(Equal("strong"))
		})
	})
})
