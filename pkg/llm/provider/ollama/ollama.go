// Package ollama implements the generation provider for a local Ollama
// instance. Responses stream as newline-delimited JSON objects with a
// "response" text field and a terminal "done" flag.
package ollama

import (
	"bufio"
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
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default generation model.
	DefaultModel = "llama3.2"

	// DefaultTimeout fails fast: local inference latency is highly variable
	// and a hung local attempt should trigger fallback quickly.
	DefaultTimeout = 30 * time.Second
)

// Generator is the Ollama generation provider.
type Generator struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the generation model. Defaults to DefaultModel if empty.
	Model string

	// Timeout is the per-attempt budget. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// New creates the Ollama generation provider.
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
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		// The stream must outlive slow token generation; the chain bounds
		// the attempt with a context deadline instead.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (g *Generator) Name() string { return "ollama" }

func (g *Generator) Timeout() time.Duration { return g.timeout }

// Generate issues a streaming /api/generate request.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Stream, error) {
	body := generateRequest{
		Model:  g.model,
		Prompt: req.Prompt,
		Stream: true,
		Options: generateOptions{
			NumCtx:        1024,
			NumPredict:    req.MaxTokens,
			Temperature:   req.Temperature,
			TopP:          0.9,
			RepeatPenalty: 1.1,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &stream{
		body:    resp.Body,
		scanner: scanner,
		logger:  g.logger,
	}, nil
}

// stream consumes NDJSON chunks from an open /api/generate response.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *zap.Logger
	done    bool
}

// Recv returns the next fragment. A single unparseable line is skipped
// rather than failing the whole stream.
func (s *stream) Recv() (llm.Fragment, error) {
	if s.done {
		return llm.Fragment{}, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.logger.Warn("skipping malformed ollama frame", zap.Error(err))
			continue
		}

		if chunk.Done {
			s.done = true
		}

		return llm.Fragment{Text: chunk.Response, Done: chunk.Done}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return llm.Fragment{}, err
	}

	// Stream closed without an explicit done chunk; treat as exhausted.
	s.done = true
	return llm.Fragment{}, io.EOF
}

func (s *stream) Close() error {
	return s.body.Close()
}

var _ provider.Provider = (*Generator)(nil)
