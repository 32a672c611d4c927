// Package openai implements the generation provider for OpenAI-compatible
// chat completion APIs. Responses stream as SSE "data:" frames terminated by
// a "[DONE]" sentinel.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
	"github.com/resumeqa/resumeqa/pkg/sse"
)

const (
	// DefaultBaseURL is the default API root.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultModel is the default generation model.
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout gives a hosted backend more slack than a local one.
	DefaultTimeout = 120 * time.Second

	// doneSentinel terminates an OpenAI SSE stream.
	doneSentinel = "[DONE]"
)

// Generator is the OpenAI-compatible generation provider.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the OpenAI-compatible provider.
type Config struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL if empty. Any
	// server speaking the chat-completions SSE dialect works (Groq,
	// OpenRouter, vLLM, ...).
	BaseURL string

	// APIKey is the bearer credential. Generate fails with
	// provider.ErrMissingCredential when empty.
	APIKey string

	// Model is the generation model. Defaults to DefaultModel if empty.
	Model string

	// Timeout is the per-attempt budget. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// New creates the OpenAI-compatible generation provider.
func New(cfg Config, logger *zap.Logger) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Generator{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Timeout() time.Duration { return g.timeout }

// Generate issues a streaming chat completion request.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Stream, error) {
	if g.apiKey == "" {
		return nil, provider.ErrMissingCredential
	}

	body := chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	return &stream{
		body:   resp.Body,
		reader: sse.NewReader(resp.Body),
		logger: g.logger,
	}, nil
}

// stream consumes SSE frames from an open chat completion response.
type stream struct {
	body   io.ReadCloser
	reader *sse.Reader
	logger *zap.Logger
	done   bool
}

// Recv returns the next fragment. A single unparseable frame is skipped
// rather than failing the whole stream.
func (s *stream) Recv() (llm.Fragment, error) {
	if s.done {
		return llm.Fragment{}, io.EOF
	}

	for {
		event, err := s.reader.Next()
		if err != nil {
			return llm.Fragment{}, err
		}
		if event == nil {
			// Stream closed without the DONE sentinel; treat as exhausted.
			s.done = true
			return llm.Fragment{}, io.EOF
		}

		if event.Data == doneSentinel {
			s.done = true
			return llm.Fragment{Done: true}, nil
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			s.logger.Warn("skipping malformed openai frame", zap.Error(err))
			continue
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		return llm.Fragment{Text: chunk.Choices[0].Delta.Content}, nil
	}
}

func (s *stream) Close() error {
	return s.body.Close()
}

var _ provider.Provider = (*Generator)(nil)
