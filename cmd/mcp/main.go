package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akolanti/GoRAG/internal/app"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/mcpTools"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const version = "1.0.0"

func main() {
	var configPath, allowDirs string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&allowDirs, "allow-dir", "", "comma separated directories ingest_file may read from, empty allows any")
	flag.Parse()

	// stdout carries the protocol
	logger_i.Configure(os.Stderr, config.LOG_LEVEL_PROD, false)
	logger := logger_i.NewLogger("mcp main")

	settings, err := config.Load(configPath)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger_i.Configure(os.Stderr, settings.SlogLevel(), settings.LogJSON)
	logger = logger_i.NewLogger("mcp main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, settings)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("Error closing local indexes", "error", err)
		}
	}()

	var roots []string
	for _, dir := range strings.Split(allowDirs, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			roots = append(roots, dir)
		}
	}

	server := mcpTools.NewServer(application.Service, version, roots)
	logger.Info("MCP server ready", "version", version, "allowed_dirs", roots)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
	}
}
