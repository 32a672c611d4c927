package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/embeddings"
	"github.com/resumeqa/resumeqa/pkg/eventstream"
	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/failover"
	"github.com/resumeqa/resumeqa/pkg/logger"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

const (
	// answerMaxTokens bounds generation length to keep answers focused.
	answerMaxTokens = 150

	// answerTemperature keeps generation close to the provided context.
	answerTemperature = 0.2

	// publishTimeout bounds the background observability write.
	publishTimeout = 10 * time.Second

	// questionLogLimit bounds question text in log lines.
	questionLogLimit = 120
)

// InsufficientGroundingMessage is the fixed reply when no candidate clears
// the relevance threshold. This is a graceful terminal outcome, not an
// error.
func InsufficientGroundingMessage(owner string) string {
	return fmt.Sprintf(
		"I couldn't find specific information in %s's resume to answer that precisely. Is there something else I can help you with?",
		owner,
	)
}

// Config holds the pipeline tunables.
type Config struct {
	// Owner is the name of the person the resume belongs to.
	Owner string

	// TopK caps the merged candidate list.
	TopK int

	// MinSimilarity is the strict lower bound vector candidates must exceed.
	MinSimilarity float64

	// ContextSize caps how many filtered candidates reach the prompt.
	ContextSize int

	// KeywordLimit caps substring matches per extracted keyword.
	KeywordLimit int
}

// Pipeline answers questions end to end. One Pipeline serves many concurrent
// requests; per-request state lives entirely inside Answer.
type Pipeline struct {
	retriever *Retriever
	chain     *failover.Chain
	publisher eventstream.Publisher
	cfg       Config
	logger    *zap.Logger
}

// NewPipeline wires the pipeline from its collaborators. All dependencies
// are injected so tests can substitute fakes without network access.
func NewPipeline(
	embedder embeddings.Embedder,
	store vector.Store,
	chain *failover.Chain,
	publisher eventstream.Publisher,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		retriever: NewRetriever(embedder, store, cfg.KeywordLimit, logger),
		chain:     chain,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Retrieve exposes hybrid retrieval on its own, for callers that want
// passages without generation.
func (p *Pipeline) Retrieve(ctx context.Context, question string) []Candidate {
	return FilterRelevant(
		p.retriever.Retrieve(ctx, question, p.cfg.TopK),
		p.cfg.MinSimilarity,
	)
}

// Answer runs the full pipeline for one question and streams the result.
// Fragments are emitted as they arrive; on success the final element carries
// the terminal metadata (sources, confidence, resolved mode) and nothing
// follows it. The channel closes when the request is finished or ctx is
// cancelled.
func (p *Pipeline) Answer(ctx context.Context, question, callerIP string, mode Tone) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		p.answer(ctx, question, callerIP, mode, events)
	}()

	return events
}

func (p *Pipeline) answer(ctx context.Context, question, callerIP string, mode Tone, events chan<- Event) {
	if IsCasualGreeting(question) {
		p.emit(ctx, events, Event{AnswerChunk: CasualGreetingResponse(p.cfg.Owner)})
		return
	}

	candidates := p.retriever.Retrieve(ctx, question, p.cfg.TopK)
	relevant := FilterRelevant(candidates, p.cfg.MinSimilarity)

	if len(relevant) == 0 {
		p.emit(ctx, events, Event{AnswerChunk: InsufficientGroundingMessage(p.cfg.Owner)})
		return
	}

	window := relevant
	if len(window) > p.cfg.ContextSize {
		window = window[:p.cfg.ContextSize]
	}

	confidence := ComputeConfidence(window)
	sources := buildSources(window)
	tone := ResolveTone(question, mode)
	prompt := BuildPrompt(p.cfg.Owner, question, window, tone)

	p.logger.Debug("generating answer",
		zap.String("question", logger.TruncateForLog(question, questionLogLimit)),
		zap.Int("context_chunks", len(window)),
		zap.String("confidence", string(confidence)),
		zap.String("tone", string(tone)),
	)

	start := time.Now()
	gen := p.chain.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})

	for fragment := range gen.Fragments() {
		if !p.emit(ctx, events, Event{AnswerChunk: fragment}) {
			return
		}
	}

	if gen.State() != failover.StateDone {
		// All providers failed; the unavailable fragment already streamed.
		return
	}

	p.emit(ctx, events, Event{Metadata: &Metadata{
		Sources:     sources,
		Confidence:  confidence,
		Mode:        tone,
		TotalChunks: len(sources),
	}})

	p.publishAnswered(question, gen.Provider(), confidence, callerIP, time.Since(start))
}

// emit delivers one event unless the caller has gone away.
func (p *Pipeline) emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// publishAnswered records the answered question fire-and-forget. The
// response has already been delivered, so failures here are logged and
// swallowed.
func (p *Pipeline) publishAnswered(question, provider string, confidence Confidence, callerIP string, duration time.Duration) {
	event := eventstream.NewQueryAnsweredEvent(question, provider, string(confidence), callerIP, duration)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.publisher.PublishQuery(ctx, event); err != nil {
			p.logger.Warn("publishing query event failed", zap.Error(err))
		}
	}()
}
