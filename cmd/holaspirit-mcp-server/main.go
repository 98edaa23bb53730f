package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	slogctx "github.com/veqryn/slog-context"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/tools"
)

const (
	serverName  = "holaspirit-mcp"
	envLogLevel = "HOLASPIRIT_MCP_LOG_LEVEL"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	flag.Parse()

	logger := newLogger(os.Stderr, os.Getenv(envLogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = slogctx.NewCtx(ctx, logger)

	if err := run(ctx, *configPath); err != nil {
		logger.Error("holaspirit MCP server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	shutdownTracing, err := setupTracing(ctx, os.LookupEnv)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			slogctx.FromCtx(ctx).Warn("tracing shutdown failed", "err", err)
		}
	}()

	cfg, err := holaspirit.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	acc, err := holaspirit.NewAccessor(cfg)
	if err != nil {
		return err
	}
	registry, err := tools.NewCatalogRegistry(acc)
	if err != nil {
		return err
	}
	server := newServer(registry, tools.NewDispatcher(registry))

	slogctx.FromCtx(ctx).Info("starting Holaspirit MCP server over stdio",
		"version", version,
		"tools", registry.Len(),
		"base_url", cfg.BaseURL,
	)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(slogctx.NewHandler(handler, nil))
}
