// Package servecmder provides the serve command running the API and MCP
// servers.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/api"
	"github.com/resumeqa/resumeqa/api/mcp"
	"github.com/resumeqa/resumeqa/pkg/config"
	ollamaembed "github.com/resumeqa/resumeqa/pkg/embeddings/ollama"
	"github.com/resumeqa/resumeqa/pkg/eventstream"
	eskafka "github.com/resumeqa/resumeqa/pkg/eventstream/kafka"
	"github.com/resumeqa/resumeqa/pkg/eventstream/nop"
	"github.com/resumeqa/resumeqa/pkg/llm/failover"
	"github.com/resumeqa/resumeqa/pkg/llm/provider"
	"github.com/resumeqa/resumeqa/pkg/llm/provider/gemini"
	ollamagen "github.com/resumeqa/resumeqa/pkg/llm/provider/ollama"
	"github.com/resumeqa/resumeqa/pkg/llm/provider/openai"
	"github.com/resumeqa/resumeqa/pkg/logger"
	"github.com/resumeqa/resumeqa/pkg/notify"
	"github.com/resumeqa/resumeqa/pkg/rag"
	"github.com/resumeqa/resumeqa/pkg/ratelimit"
	"github.com/resumeqa/resumeqa/pkg/vector"
	"github.com/resumeqa/resumeqa/pkg/vector/pgvector"
	"github.com/resumeqa/resumeqa/pkg/vector/sqlitevec"
)

type ServeCommander struct {
	configPath string
	debug      bool
	logger     *zap.Logger
}

const serveLongDesc string = `Run the ResumeQA services.

Starts the HTTP API server (ask, health, resume requests) and, when
configured, the MCP server exposing ask and search tools.`

const serveShortDesc string = "Run the ResumeQA API and MCP servers"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configPath, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}
			return cmder.run()
		},
	}

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := buildStore(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := ollamaembed.NewEmbedder(ollamaembed.EmbedderConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	providers, err := buildProviders(cfg, c.logger)
	if err != nil {
		return err
	}

	chain, err := failover.New(providers, c.logger)
	if err != nil {
		return err
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pipeline := rag.NewPipeline(embedder, store, chain, publisher, rag.Config{
		Owner:         cfg.Owner.Name,
		TopK:          cfg.Retrieval.TopK,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		ContextSize:   cfg.Retrieval.ContextSize,
		KeywordLimit:  cfg.Retrieval.KeywordLimit,
	}, c.logger)

	notifier := notify.New(notify.Config{
		APIKey:    cfg.Notify.ResendAPIKey,
		Sender:    cfg.Notify.Sender,
		Recipient: cfg.Notify.Recipient,
		Owner:     cfg.Owner.Name,
	}, c.logger)

	limiter := ratelimit.New(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
	defer limiter.Close()

	apiServer := api.NewServer(api.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, pipeline, store, notifier, limiter, c.logger)

	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	var mcpHTTP *http.Server
	if cfg.Server.MCPListen != "" {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Pipeline: pipeline,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}

		mcpHTTP = &http.Server{
			Addr:    cfg.Server.MCPListen,
			Handler: mcpServer.Handler(),
		}

		c.logger.Info("starting MCP server",
			zap.String("listen", cfg.Server.MCPListen),
		)

		go func() {
			if err := mcpHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		if mcpHTTP != nil {
			mcpHTTP.Shutdown(ctx)
		}
		return apiServer.Shutdown()
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (vector.Store, error) {
	switch cfg.Vector.Provider {
	case "pgvector":
		store, err := pgvector.NewStore(ctx, pgvector.Config{
			ConnStr:    cfg.Vector.DatabaseURL,
			Dimensions: cfg.Embedding.Dimensions,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("creating pgvector store: %w", err)
		}
		return store, nil
	case "sqlitevec":
		store, err := sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     cfg.Vector.SQLitePath,
			Dimensions: cfg.Embedding.Dimensions,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("creating sqlitevec store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector provider %q", cfg.Vector.Provider)
	}
}

func buildProviders(cfg *config.Config, log *zap.Logger) ([]provider.Provider, error) {
	providers := make([]provider.Provider, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		switch name {
		case "ollama":
			providers = append(providers, ollamagen.New(ollamagen.Config{
				BaseURL: cfg.Providers.Ollama.BaseURL,
				Model:   cfg.Providers.Ollama.Model,
				Timeout: cfg.Providers.Ollama.Timeout,
			}, log))
		case "openai":
			providers = append(providers, openai.New(openai.Config{
				BaseURL: cfg.Providers.OpenAI.BaseURL,
				APIKey:  cfg.Providers.OpenAI.APIKey,
				Model:   cfg.Providers.OpenAI.Model,
				Timeout: cfg.Providers.OpenAI.Timeout,
			}, log))
		case "gemini":
			providers = append(providers, gemini.New(gemini.Config{
				APIKey:  cfg.Providers.Gemini.APIKey,
				Model:   cfg.Providers.Gemini.Model,
				Timeout: cfg.Providers.Gemini.Timeout,
			}, log))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return providers, nil
}

func buildPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "kafka":
		publisher, err := eskafka.NewPublisher(eskafka.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return publisher, nil
	default:
		return nop.NewPublisher(), nil
	}
}
