// Package askcmder provides the ask command, a one-shot streaming client for
// a running resumeqa server.
package askcmder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/resumeqa/resumeqa/pkg/rag"
)

const DefaultTarget = "http://localhost:8080"

var (
	questionPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
	metaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type AskCommander struct {
	target string
	mode   string
}

const askLongDesc string = `Ask a running resumeqa server a question.

Streams the answer to the terminal as it is generated, then prints the
grounding sources and confidence reported by the server.`

const askShortDesc string = "Ask a question against a running server"

func NewAskCmd() *cobra.Command {
	cmder := &AskCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.target, "target", "t", DefaultTarget, "base URL of the resumeqa server")
	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "auto", "answer tone: auto, recruiter, or casual")

	return cmd
}

func (c *AskCommander) run(question string) error {
	fmt.Println(questionPrompt + question)

	payload, err := json.Marshal(map[string]string{
		"question": question,
		"mode":     c.mode,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}

	resp, err := client.Post(
		strings.TrimRight(c.target, "/")+"/ask",
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("contacting server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Print(assistantPrompt)

	var metadata *rag.Metadata

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var event rag.Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if event.AnswerChunk != "" {
			fmt.Print(event.AnswerChunk)
		}
		if event.Metadata != nil {
			metadata = event.Metadata
		}
	}
	fmt.Println()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	if metadata != nil {
		printMetadata(metadata)
	}

	return nil
}

func printMetadata(m *rag.Metadata) {
	var b strings.Builder

	fmt.Fprintf(&b, "\nconfidence: %s  mode: %s  chunks: %d\n", m.Confidence, m.Mode, m.TotalChunks)
	for _, src := range m.Sources {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", src.Relevance, src.Section, src.Preview)
	}

	fmt.Print(metaStyle.Render(b.String()))
}
