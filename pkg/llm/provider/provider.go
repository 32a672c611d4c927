// Package provider defines the interface a text-generation backend exposes
// to the fallback chain. Each implementation knows its own wire framing
// (NDJSON objects, SSE data lines, or an SDK) and normalizes it into
// llm.Fragment values.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/resumeqa/resumeqa/pkg/llm"
)

// ErrMissingCredential is returned by Generate when a provider has no
// credential configured. The chain treats it like any other attempt failure.
var ErrMissingCredential = errors.New("missing provider credential")

// Provider is a single text-generation backend.
type Provider interface {
	// Name returns the canonical provider name (e.g., "ollama", "openai", "gemini")
	Name() string

	// Timeout returns the per-attempt deadline budget for this backend.
	// Local backends fail fast to trigger fallback; hosted backends get
	// more slack.
	Timeout() time.Duration

	// Generate issues the request and returns a stream of fragments.
	// An error here means the attempt never produced output and the chain
	// may fall through to the next provider.
	Generate(ctx context.Context, req llm.Request) (llm.Stream, error)
}
