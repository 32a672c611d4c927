// Package api provides the HTTP server exposing the question-answering
// pipeline: streaming and non-streaming ask endpoints, health, and resume
// download requests.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// CORSOrigins is the allowed origins list passed to the CORS middleware.
	CORSOrigins string
}
