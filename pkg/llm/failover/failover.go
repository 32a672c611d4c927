// Package failover runs an ordered list of generation providers as an
// explicit state machine: each provider is attempted in turn with its own
// timeout, the first one to stream wins, and exhausting the list yields a
// fixed unavailable message. Ordering is a static priority list; there is no
// health tracking across requests.
package failover

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
)

// UnavailableMessage is the single fragment emitted when every provider
// fails before producing output.
const UnavailableMessage = "The assistant is temporarily unavailable right now. Please try again in a moment."

// ErrNoProviders is returned by New when the chain would be empty.
var ErrNoProviders = errors.New("failover chain requires at least one provider")

// State enumerates the chain's lifecycle states.
type State int

const (
	// StateNotStarted is the initial state before any provider attempt.
	StateNotStarted State = iota

	// StateAttempting means a provider request is in flight but has not
	// produced output yet.
	StateAttempting

	// StateStreaming means the current provider has begun emitting
	// fragments. From here the generation can only complete; a provider
	// that already emitted output is never retried or replaced.
	StateStreaming

	// StateFailed means the current provider failed before emitting output;
	// the chain moves on to the next provider.
	StateFailed

	// StateDone is terminal: a stream completed (fully or with partial
	// output after a mid-stream failure).
	StateDone

	// StateAllFailed is terminal: every provider failed before emitting.
	StateAllFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateAttempting:
		return "attempting"
	case StateStreaming:
		return "streaming"
	case StateFailed:
		return "failed"
	case StateDone:
		return "done"
	case StateAllFailed:
		return "all_failed"
	default:
		return "unknown"
	}
}

// Attempt records the outcome of one provider attempt, for fallback control
// and logging only. It is never persisted by the chain.
type Attempt struct {
	Provider string
	Success  bool
	Err      error
}

// Chain is an ordered, static-priority provider list.
type Chain struct {
	providers []provider.Provider
	logger    *zap.Logger
}

// New creates a failover chain over the given providers, tried in order.
func New(providers []provider.Provider, logger *zap.Logger) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return &Chain{providers: providers, logger: logger}, nil
}

// Generation is a single in-flight run of the chain. Fragments are consumed
// from Fragments(); State, Provider and Attempts are stable once the channel
// has closed.
type Generation struct {
	fragments chan string

	mu       sync.Mutex
	state    State
	provider string
	attempts []Attempt
}

// Fragments returns the channel of streamed text fragments. The channel is
// closed when the generation reaches a terminal state.
func (g *Generation) Fragments() <-chan string {
	return g.fragments
}

// State returns the current chain state.
func (g *Generation) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Provider returns the name of the provider that produced output, or the
// empty string if none did.
func (g *Generation) Provider() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.provider
}

// Attempts returns the per-provider attempt records in order.
func (g *Generation) Attempts() []Attempt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Attempt(nil), g.attempts...)
}

func (g *Generation) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Generation) setProvider(name string) {
	g.mu.Lock()
	g.provider = name
	g.mu.Unlock()
}

func (g *Generation) record(a Attempt) {
	g.mu.Lock()
	g.attempts = append(g.attempts, a)
	g.mu.Unlock()
}

// Generate starts the chain. Fragments stream on the returned Generation as
// network bytes arrive; the caller must drain Fragments() until it closes.
// Cancelling ctx stops provider consumption and releases the connection.
func (c *Chain) Generate(ctx context.Context, req llm.Request) *Generation {
	gen := &Generation{
		fragments: make(chan string),
		state:     StateNotStarted,
	}

	go c.run(ctx, req, gen)

	return gen
}

func (c *Chain) run(ctx context.Context, req llm.Request, gen *Generation) {
	defer close(gen.fragments)

	for _, p := range c.providers {
		if ctx.Err() != nil {
			gen.setState(StateDone)
			return
		}

		gen.setState(StateAttempting)

		done := c.attempt(ctx, p, req, gen)
		if done {
			return
		}

		gen.setState(StateFailed)
	}

	gen.setState(StateAllFailed)
	select {
	case gen.fragments <- UnavailableMessage:
	case <-ctx.Done():
	}
}

// attempt runs a single provider. It returns true when the generation is
// terminally complete (successfully, with partial output, or cancelled) and
// false when the chain should fall through to the next provider.
func (c *Chain) attempt(ctx context.Context, p provider.Provider, req llm.Request, gen *Generation) bool {
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout())
	defer cancel()

	stream, err := p.Generate(attemptCtx, req)
	if err != nil {
		c.logger.Warn("provider attempt failed",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		gen.record(Attempt{Provider: p.Name(), Err: err})
		return false
	}
	defer stream.Close()

	emitted := false

	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			// Clean end of stream.
			gen.record(Attempt{Provider: p.Name(), Success: true})
			gen.setProvider(p.Name())
			gen.setState(StateDone)
			return true
		}
		if err != nil {
			if !emitted {
				// Nothing surfaced yet; this attempt can still be replaced.
				c.logger.Warn("provider stream failed before output",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				gen.record(Attempt{Provider: p.Name(), Err: err})
				return false
			}

			// Partial output already reached the caller. Fragments are never
			// retracted and a partially-streamed provider is never redone, so
			// the generation completes with what was emitted.
			c.logger.Warn("provider stream failed mid-output, keeping partial answer",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			gen.record(Attempt{Provider: p.Name(), Err: err})
			gen.setProvider(p.Name())
			gen.setState(StateDone)
			return true
		}

		if frag.Text != "" {
			select {
			case gen.fragments <- frag.Text:
				if !emitted {
					emitted = true
					gen.setState(StateStreaming)
					gen.setProvider(p.Name())
				}
			case <-ctx.Done():
				// Caller went away; stop consuming provider output.
				gen.setState(StateDone)
				return true
			}
		}

		if frag.Done {
			gen.record(Attempt{Provider: p.Name(), Success: true})
			gen.setProvider(p.Name())
			gen.setState(StateDone)
			return true
		}
	}
}
