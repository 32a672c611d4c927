// Package resumeqacmder
package resumeqacmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/resumeqa/resumeqa/cmd/resumeqa/ask"
	ingestcmder "github.com/resumeqa/resumeqa/cmd/resumeqa/ingest"
	servecmder "github.com/resumeqa/resumeqa/cmd/resumeqa/serve"
	versioncmder "github.com/resumeqa/resumeqa/cmd/resumeqa/version"
)

const resumeqaLongDesc string = `ResumeQA answers questions about a resume using hybrid retrieval
and multi-provider generation.

Run services using:
  resumeqa serve       Run the API and MCP servers
  resumeqa ingest      Ingest a markdown resume into the vector store
  resumeqa ask         Ask a question against a running server`

const resumeqaShortDesc string = "ResumeQA - Resume question answering"

func NewResumeQACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resumeqa",
		Short: resumeqaShortDesc,
		Long:  resumeqaLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
