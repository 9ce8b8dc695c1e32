// Package cli is the ragctl command line: ingest, parse, search, ask and aggregate
// against the same stores the API uses.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/akolanti/GoRAG/internal/app"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/spf13/cobra"
)

const offlineAnnotation = "offline"

var (
	configPath string
	outputJSON bool
	verbose    bool

	// ragService is built lazily so offline commands never dial a provider.
	ragService rag.Service
	closeApp   func() error
	cancelApp  context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Ingest documents and query them from the command line",
	Long: `ragctl drives the document RAG pipeline directly, without the HTTP server.
Documents ingested here are visible to the API when both share the same qdrant and redis.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	level := config.LOG_LEVEL_PROD
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		level = settings.SlogLevel()
	}
	logger_i.Configure(os.Stderr, level, false)

	if cmd.Annotations[offlineAnnotation] == "true" || ragService != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	application, err := app.Build(ctx, settings)
	if err != nil {
		cancel()
		return err
	}
	ragService = application.Service
	closeApp = application.Close
	cancelApp = cancel
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if cancelApp == nil {
		return nil
	}
	err := closeApp()
	cancelApp()
	ragService, closeApp, cancelApp = nil, nil, nil
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
