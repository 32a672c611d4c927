package ollama

// generateRequest is the Ollama-native /api/generate request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// generateOptions carries Ollama generation parameters. The context window
// is kept small: this serves short grounded answers on commodity hardware.
type generateOptions struct {
	NumCtx        int     `json:"num_ctx,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

// generateChunk is a single NDJSON line streamed back by /api/generate.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
