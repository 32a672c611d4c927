package api

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/logger"
	"github.com/resumeqa/resumeqa/pkg/notify"
	"github.com/resumeqa/resumeqa/pkg/rag"
)

const (
	// notifyTimeout bounds the background download-alert delivery.
	notifyTimeout = 15 * time.Second

	// questionLogLimit bounds question text in log lines.
	questionLogLimit = 120
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AskRequest is the body for /ask and /ask/sync.
type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

// SyncAnswerResponse is the drained answer for /ask/sync.
type SyncAnswerResponse struct {
	Answer   string        `json:"answer"`
	Metadata *rag.Metadata `json:"metadata"`
}

// DownloadRequestBody is the body for /resume/request.
type DownloadRequestBody struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Note    string `json:"note"`
}

// callerIP resolves the requester's IP, preferring the first hop of
// X-Forwarded-For when the server sits behind a proxy.
func callerIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return c.IP()
}

// rateLimited rejects callers that exhausted their token bucket.
func (s *Server) rateLimited(c *fiber.Ctx) error {
	if !s.limiter.Allow(callerIP(c)) {
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "rate limit exceeded"})
	}
	return c.Next()
}

// handleHealth reports service status and whether the vector store is
// reachable.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	count, err := s.store.Count(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{"status": "unhealthy"})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"chunks": count,
	})
}

// handleAsk streams the answer as newline-delimited JSON, one pipeline event
// per line, forwarding each fragment as it is produced.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	req, err := parseAskRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	ip := callerIP(c)
	s.logger.Info("question received",
		zap.String("ip", ip),
		zap.String("mode", string(req.mode)),
		zap.String("question", logger.TruncateForLog(req.question, questionLogLimit)),
	)

	c.Set(fiber.HeaderContentType, "application/x-ndjson")

	ctx := c.Context()
	question := req.question
	mode := req.mode

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for event := range s.pipeline.Answer(ctx, question, ip, mode) {
			line, err := json.Marshal(event)
			if err != nil {
				s.logger.Warn("encoding answer event failed", zap.Error(err))
				return
			}
			if _, err := w.Write(append(line, '\n')); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away; the pipeline stops via ctx.
				return
			}
		}
	})

	return nil
}

// handleAskSync drains the full answer before responding, for callers that
// cannot consume a stream.
func (s *Server) handleAskSync(c *fiber.Ctx) error {
	req, err := parseAskRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var answer strings.Builder
	var metadata *rag.Metadata

	for event := range s.pipeline.Answer(c.Context(), req.question, callerIP(c), req.mode) {
		answer.WriteString(event.AnswerChunk)
		if event.Metadata != nil {
			metadata = event.Metadata
		}
	}

	return c.JSON(SyncAnswerResponse{
		Answer:   answer.String(),
		Metadata: metadata,
	})
}

// handleResumeRequest records a resume-download request and alerts the
// owner. Notification failures are logged and swallowed; the caller always
// gets an acknowledgement.
func (s *Server) handleResumeRequest(c *fiber.Ctx) error {
	var body DownloadRequestBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if body.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "email is required"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := s.notifier.SendDownloadAlert(ctx, notify.DownloadRequest{
			RequesterEmail: body.Email,
			Purpose:        body.Purpose,
			Note:           body.Note,
		})
		if err != nil {
			s.logger.Warn("sending download alert failed", zap.Error(err))
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "received"})
}

type askParams struct {
	question string
	mode     rag.Tone
}

func parseAskRequest(c *fiber.Ctx) (askParams, error) {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return askParams{}, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return askParams{}, fiber.NewError(fiber.StatusBadRequest, "question is required")
	}

	mode := rag.Tone(req.Mode)
	switch mode {
	case rag.ToneRecruiter, rag.ToneCasual:
	default:
		mode = rag.ToneAuto
	}

	return askParams{question: req.Question, mode: mode}, nil
}
