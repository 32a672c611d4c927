package failover_test

import (
	"context"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/llm"
	"github.com/resumeqa/resumeqa/pkg/llm/failover"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
)

// fakeStream replays scripted fragments, optionally ending with an error
// instead of a clean close.
type fakeStream struct {
	fragments []llm.Fragment
	finalErr  error
	pos       int
}

func (s *fakeStream) Recv() (llm.Fragment, error) {
	if s.pos >= len(s.fragments) {
		if s.finalErr != nil {
			return llm.Fragment{}, s.finalErr
		}
		return llm.Fragment{}, io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *fakeStream) Close() error { return nil }

// fakeProvider scripts one attempt: an immediate error, or a stream.
type fakeProvider struct {
	name      string
	timeout   time.Duration
	generr    error
	stream    *fakeStream
	callCount int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Timeout() time.Duration {
	if p.timeout == 0 {
		return time.Second
	}
	return p.timeout
}

func (p *fakeProvider) Generate(ctx context.Context, req llm.Request) (llm.Stream, error) {
	p.callCount++
	if p.generr != nil {
		return nil, p.generr
	}
	return p.stream, nil
}

func drain(gen *failover.Generation) []string {
	var out []string
	for frag := range gen.Fragments() {
		out = append(out, frag)
	}
	return out
}

var _ = Describe("Chain", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("New", func() {
		It("rejects an empty provider list", func() {
			_, err := failover.New(nil, logger)
			Expect(err).To(MatchError(failover.ErrNoProviders))
		})
	})

	Describe("Generate", func() {
		It("streams fragments from the first provider when it succeeds", func() {
			first := &fakeProvider{
				name: "ollama",
				stream: &fakeStream{fragments: []llm.Fragment{
					{Text: "Sahil "},
					{Text: "studied CS.", Done: true},
				}},
			}
			second := &fakeProvider{name: "openai"}

			chain, err := failover.New([]provider.Provider{first, second}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			fragments := drain(gen)

			Expect(fragments).To(Equal([]string{"Sahil ", "studied CS."}))
			Expect(gen.State()).To(Equal(failover.StateDone))
			Expect(gen.Provider()).To(Equal("ollama"))
			Expect(second.callCount).To(BeZero())
		})

		It("falls through to the next provider when the first fails before output", func() {
			first := &fakeProvider{name: "ollama", generr: errors.New("connection refused")}
			second := &fakeProvider{
				name: "openai",
				stream: &fakeStream{fragments: []llm.Fragment{
					{Text: "answer", Done: true},
				}},
			}

			chain, err := failover.New([]provider.Provider{first, second}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			fragments := drain(gen)

			Expect(fragments).To(Equal([]string{"answer"}))
			Expect(gen.Provider()).To(Equal("openai"))

			attempts := gen.Attempts()
			Expect(attempts).To(HaveLen(2))
			Expect(attempts[0].Provider).To(Equal("ollama"))
			Expect(attempts[0].Success).To(BeFalse())
			Expect(attempts[1].Provider).To(Equal("openai"))
			Expect(attempts[1].Success).To(BeTrue())
		})

		It("falls through when a stream errors before its first fragment", func() {
			first := &fakeProvider{
				name:   "ollama",
				stream: &fakeStream{finalErr: errors.New("reset by peer")},
			}
			second := &fakeProvider{
				name: "gemini",
				stream: &fakeStream{fragments: []llm.Fragment{
					{Text: "ok", Done: true},
				}},
			}

			chain, err := failover.New([]provider.Provider{first, second}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			Expect(drain(gen)).To(Equal([]string{"ok"}))
			Expect(gen.Provider()).To(Equal("gemini"))
		})

		It("keeps partial output and never switches providers mid-stream", func() {
			first := &fakeProvider{
				name: "ollama",
				stream: &fakeStream{
					fragments: []llm.Fragment{{Text: "partial "}},
					finalErr:  errors.New("stream cut"),
				},
			}
			second := &fakeProvider{name: "openai"}

			chain, err := failover.New([]provider.Provider{first, second}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			fragments := drain(gen)

			Expect(fragments).To(Equal([]string{"partial "}))
			Expect(gen.State()).To(Equal(failover.StateDone))
			Expect(gen.Provider()).To(Equal("ollama"))
			Expect(second.callCount).To(BeZero())
		})

		It("emits the unavailable message when every provider fails", func() {
			providers := []provider.Provider{
				&fakeProvider{name: "ollama", generr: errors.New("down")},
				&fakeProvider{name: "openai", generr: errors.New("down")},
				&fakeProvider{name: "gemini", generr: errors.New("down")},
			}

			chain, err := failover.New(providers, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			fragments := drain(gen)

			Expect(fragments).To(Equal([]string{failover.UnavailableMessage}))
			Expect(gen.State()).To(Equal(failover.StateAllFailed))
			Expect(gen.Provider()).To(BeEmpty())
			Expect(gen.Attempts()).To(HaveLen(3))
		})

		It("treats a missing credential like any other pre-output failure", func() {
			first := &fakeProvider{name: "openai", generr: provider.ErrMissingCredential}
			second := &fakeProvider{
				name: "ollama",
				stream: &fakeStream{fragments: []llm.Fragment{
					{Text: "local answer", Done: true},
				}},
			}

			chain, err := failover.New([]provider.Provider{first, second}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(context.Background(), llm.Request{Prompt: "q"})
			Expect(drain(gen)).To(Equal([]string{"local answer"}))
			Expect(gen.Provider()).To(Equal("ollama"))
		})

		It("stops consuming when the caller cancels", func() {
			ctx, cancel := context.WithCancel(context.Background())
			first := &fakeProvider{
				name: "ollama",
				stream: &fakeStream{fragments: []llm.Fragment{
					{Text: "a"}, {Text: "b"}, {Text: "c", Done: true},
				}},
			}

			chain, err := failover.New([]provider.Provider{first}, logger)
			Expect(err).NotTo(HaveOccurred())

			gen := chain.Generate(ctx, llm.Request{Prompt: "q"})
			first1 := <-gen.Fragments()
			Expect(first1).To(Equal("a"))
			cancel()

			// Drain whatever remains; the channel must still close.
			drain(gen)
			Expect(gen.State()).To(Equal(failover.StateDone))
		})
	})
})
