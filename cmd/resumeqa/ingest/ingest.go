// Package ingestcmder provides the ingest command loading a resume into the
// vector store.
package ingestcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/pkg/cliui"
	"github.com/resumeqa/resumeqa/pkg/config"
	ollamaembed "github.com/resumeqa/resumeqa/pkg/embeddings/ollama"
	"github.com/resumeqa/resumeqa/pkg/ingest"
	"github.com/resumeqa/resumeqa/pkg/logger"
	"github.com/resumeqa/resumeqa/pkg/vector"
	"github.com/resumeqa/resumeqa/pkg/vector/pgvector"
	"github.com/resumeqa/resumeqa/pkg/vector/sqlitevec"
)

type IngestCommander struct {
	configPath string
	debug      bool
	logger     *zap.Logger
}

const ingestLongDesc string = `Ingest a markdown resume into the vector store.

Splits the resume on markdown headers, skips fragments too short or empty
to be useful, embeds each chunk with section context prepended, and stores
the original chunk text alongside its embedding.`

const ingestShortDesc string = "Ingest a markdown resume into the vector store"

func NewIngestCmd() *cobra.Command {
	cmder := &IngestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <resume.md>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configPath, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}
			return cmder.run(args[0])
		},
	}

	return cmd
}

func (c *IngestCommander) run(path string) error {
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

	ingester := ingest.NewIngester(embedder, store, cfg.Owner.Name, c.logger)

	var result *ingest.Result
	err = cliui.Step(os.Stdout, fmt.Sprintf("Ingesting %s", path), func() error {
		var stepErr error
		result, stepErr = ingester.IngestFile(ctx, path)
		return stepErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d chunks (%d skipped)\n", result.Ingested, result.Skipped)
	for section, count := range result.Sections {
		fmt.Printf("  %s: %d\n", section, count)
	}

	return nil
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
