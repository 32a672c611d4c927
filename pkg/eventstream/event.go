package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeQueryAnswered is emitted after a question is answered.
	EventTypeQueryAnswered = "resumeqa.query.answered"
)

// QueryAnsweredEvent is a transport-neutral record of one answered question.
// It is emitted fire-and-forget after a successful generation; publishing
// failures never affect the answer path.
type QueryAnsweredEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Question      string    `json:"question"`
	Provider      string    `json:"provider"`
	Confidence    string    `json:"confidence"`
	CallerIP      string    `json:"caller_ip,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
}

// NewQueryAnsweredEvent builds a v1 event with a fresh ID and timestamp.
func NewQueryAnsweredEvent(question, provider, confidence, callerIP string, duration time.Duration) *QueryAnsweredEvent {
	return &QueryAnsweredEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeQueryAnswered,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Question:      question,
		Provider:      provider,
		Confidence:    confidence,
		CallerIP:      callerIP,
		DurationMs:    duration.Milliseconds(),
	}
}
