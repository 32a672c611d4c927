package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/rag"
)

var (
	askToolName    = "ask"
	askDescription = "Ask a natural-language question about the resume. Returns a grounded answer with source passages and a confidence label."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the resume"`
	Mode     string `json:"mode,omitempty" jsonschema:"answer tone: auto, recruiter or casual (default: auto)"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer   string        `json:"answer"`
	Metadata *rag.Metadata `json:"metadata,omitempty"`
}

// handleAsk runs the full pipeline and drains the stream into one answer.
func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Question) == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "question is required"},
			},
		}, AskOutput{}, nil
	}

	mode := rag.Tone(input.Mode)
	switch mode {
	case rag.ToneRecruiter, rag.ToneCasual:
	default:
		mode = rag.ToneAuto
	}

	logger.Debug("MCP ask request",
		zap.String("question", input.Question),
		zap.String("mode", string(mode)),
	)

	var answer strings.Builder
	var metadata *rag.Metadata
	for event := range s.config.Pipeline.Answer(ctx, input.Question, "mcp", mode) {
		answer.WriteString(event.AnswerChunk)
		if event.Metadata != nil {
			metadata = event.Metadata
		}
	}

	output := AskOutput{
		Answer:   answer.String(),
		Metadata: metadata,
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal ask output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize answer: %v", err)},
			},
		}, AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
