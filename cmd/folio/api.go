package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Folio server via HTTP.

These commands require a running server (folio serve).
Use --server to specify a custom server URL.

Examples:
  folio api health                                # Check server health
  folio api books create "My Title" --author Me   # Start a generation job
  folio api jobs list                             # List all jobs
  folio api jobs get <id>                         # Get a specific job`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Generation job commands",
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Book generation commands",
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Job artifact commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.MetricsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	// Books as subcommand group
	booksCmd.AddCommand((&endpoints.CreateBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.ListBooksEndpoint{}).Command(getServerURL))

	// Jobs as subcommand group
	jobsCmd.AddCommand((&endpoints.ListJobsEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.GetJobEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.CancelJobEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.DeleteJobEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.ListArtifactsEndpoint{}).Command(getServerURL))

	// Artifacts as subcommand group
	artifactsCmd.AddCommand((&endpoints.DownloadArtifactEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(booksCmd)
	apiCmd.AddCommand(jobsCmd)
	apiCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(apiCmd)
}
