// Package notify sends email alerts through the Resend HTTP API when
// someone requests the resume. Notification failures are reported to the
// caller as an error but are expected to be logged and swallowed; an alert
// must never abort the request that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Resend API root.
	DefaultBaseURL = "https://api.resend.com"

	// DefaultSender is used when no sender address is configured.
	DefaultSender = "Portfolio Alert <onboarding@resend.dev>"

	requestTimeout = 10 * time.Second
)

// DownloadRequest describes one resume-download request.
type DownloadRequest struct {
	RequesterEmail string
	Purpose        string
	Note           string
}

// Notifier sends download alerts to the resume owner.
type Notifier struct {
	baseURL    string
	apiKey     string
	sender     string
	recipient  string
	owner      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds notifier settings.
type Config struct {
	// BaseURL overrides the Resend API root, mainly for tests.
	BaseURL string

	// APIKey is the Resend API key. Empty disables sending.
	APIKey string

	// Sender is the from address. Defaults to DefaultSender if empty.
	Sender string

	// Recipient is the owner's address alerts are delivered to.
	Recipient string

	// Owner is the resume owner's name, used in the message body.
	Owner string
}

// New creates a Resend-backed notifier.
func New(cfg Config, logger *zap.Logger) *Notifier {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	sender := cfg.Sender
	if sender == "" {
		sender = DefaultSender
	}

	return &Notifier{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		sender:    sender,
		recipient: cfg.Recipient,
		owner:     cfg.Owner,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// SendDownloadAlert emails the owner about a resume-download request.
func (n *Notifier) SendDownloadAlert(ctx context.Context, req DownloadRequest) error {
	if n.apiKey == "" || n.recipient == "" {
		return fmt.Errorf("notifier not configured")
	}

	note := req.Note
	if note == "" {
		note = "No message provided."
	}

	body := fmt.Sprintf(`Hello %s,

Someone just requested your resume from your AI portfolio.

Details:
- Email: %s
- Purpose: %s
- Message: %s

Time: %s`,
		n.owner, req.RequesterEmail, req.Purpose, note,
		time.Now().Format(time.RFC1123),
	)

	payload := emailPayload{
		From:    n.sender,
		To:      []string{n.recipient},
		Subject: fmt.Sprintf("New Resume Download: %s", req.Purpose),
		Text:    body,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling email: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", n.baseURL+"/emails", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info("download alert sent",
		zap.String("purpose", req.Purpose),
	)
	return nil
}
