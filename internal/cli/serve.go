package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/subweaver/subweaver/internal/config"
	"github.com/subweaver/subweaver/internal/project"
	"github.com/subweaver/subweaver/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor HTTP API",
	Long: `Run the editor as an HTTP API backed by a local sqlite database.

Configuration comes from the environment (or a .env file): HTTP_ADDR,
DB_PATH, and the provider API keys.

Example:
  subweaver serve
  HTTP_ADDR=:9090 subweaver serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	repo, err := project.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	srv := server.New(cfg, repo, logger)

	logger.Infow("Starting HTTP API",
		"addr", cfg.HTTPAddr,
		"db", cfg.DBPath,
	)
	return http.ListenAndServe(cfg.HTTPAddr, srv.Routes())
}
