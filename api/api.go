package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/notify"
	"github.com/resumeqa/resumeqa/pkg/rag"
	"github.com/resumeqa/resumeqa/pkg/ratelimit"
	"github.com/resumeqa/resumeqa/pkg/vector"
)

// Server is the HTTP API server fronting the answer pipeline.
type Server struct {
	config   Config
	pipeline *rag.Pipeline
	store    vector.Store
	notifier *notify.Notifier
	limiter  *ratelimit.Limiter
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates the API server. The pipeline, store and notifier are
// injected so they can be shared with other surfaces (MCP, CLI).
func NewServer(
	config Config,
	pipeline *rag.Pipeline,
	store vector.Store,
	notifier *notify.Notifier,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.CORSOrigins,
	}))

	s := &Server{
		config:   config,
		pipeline: pipeline,
		store:    store,
		notifier: notifier,
		limiter:  limiter,
		logger:   logger,
		app:      app,
	}

	app.Get("/health", s.handleHealth)
	app.Post("/ask", s.rateLimited, s.handleAsk)
	app.Post("/ask/sync", s.rateLimited, s.handleAskSync)
	app.Post("/resume/request", s.rateLimited, s.handleResumeRequest)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
