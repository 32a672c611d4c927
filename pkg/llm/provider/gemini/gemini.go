// Package gemini implements the generation provider for the Gemini API
// through the google.golang.org/genai SDK, which handles the wire framing
// itself.
package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
)

const (
	// DefaultModel is the default generation model.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTimeout gives a hosted backend more slack than a local one.
	DefaultTimeout = 120 * time.Second
)

// Generator is the Gemini generation provider.
type Generator struct {
	apiKey  string
	model   string
	timeout time.Duration
	logger  *zap.Logger

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// Config holds configuration for the Gemini provider.
type Config struct {
	// APIKey is the Gemini API key. Generate fails with
	// provider.ErrMissingCredential when empty.
	APIKey string

	// Model is the generation model. Defaults to DefaultModel if empty.
	Model string

	// Timeout is the per-attempt budget. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// New creates the Gemini generation provider. The underlying client is
// created lazily on first use so a missing key is an attempt failure, not a
// startup failure.
func New(cfg Config, logger *zap.Logger) *Generator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Generator{
		apiKey:  cfg.APIKey,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (g *Generator) Name() string { return "gemini" }

func (g *Generator) Timeout() time.Duration { return g.timeout }

// Generate issues a streaming generate-content request.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Stream, error) {
	if g.apiKey == "" {
		return nil, provider.ErrMissingCredential
	}

	g.initOnce.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if g.initErr != nil {
		return nil, fmt.Errorf("creating genai client: %w", g.initErr)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	seq := g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(req.Prompt), config)
	next, stop := iter.Pull2(seq)

	return &stream{next: next, stop: stop}, nil
}

// stream adapts the SDK's push iterator to the pull-based llm.Stream.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	done bool
}

func (s *stream) Recv() (llm.Fragment, error) {
	if s.done {
		return llm.Fragment{}, io.EOF
	}

	resp, err, ok := s.next()
	if !ok {
		s.done = true
		return llm.Fragment{}, io.EOF
	}
	if err != nil {
		s.done = true
		return llm.Fragment{}, err
	}

	return llm.Fragment{Text: resp.Text()}, nil
}

func (s *stream) Close() error {
	s.stop()
	return nil
}

var _ provider.Provider = (*Generator)(nil)
