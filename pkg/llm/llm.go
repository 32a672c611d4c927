// Package llm defines the provider-agnostic types streamed text generation
// is expressed in. Provider implementations live under pkg/llm/provider and
// the ordered fallback chain under pkg/llm/failover.
package llm

// Fragment represents a single streamed piece of generated text.
type Fragment struct {
	// Text is the partial answer text carried by this fragment. May be
	// empty on the terminal fragment.
	Text string

	// Done is true on the final fragment of a successful stream.
	Done bool
}

// Stream is a finite, non-restartable sequence of fragments from one
// provider attempt.
type Stream interface {
	// Recv returns the next fragment. It returns io.EOF once the stream is
	// exhausted after a fragment with Done set, and any other error when the
	// stream fails mid-flight.
	Recv() (Fragment, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// Request is a provider-agnostic generation request.
type Request struct {
	// Prompt is the fully assembled grounded prompt.
	Prompt string

	// MaxTokens bounds generation length. Zero means provider default.
	MaxTokens int

	// Temperature controls sampling. Zero value is passed through; the
	// pipeline always sets it explicitly.
	Temperature float64
}
