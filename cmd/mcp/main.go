// Package main provides the standalone MCP server for the hybrid store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/config"
	"github.com/synapseos/hybridstore/internal/embedding"
	"github.com/synapseos/hybridstore/internal/events"
	"github.com/synapseos/hybridstore/internal/mcp"
	"github.com/synapseos/hybridstore/internal/namespace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"

	// Command line flags
	mode        = flag.String("mode", "stdio", "Transport mode: stdio or http")
	addr        = flag.String("addr", ":8081", "HTTP address (for http mode)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("synapse hybridstore MCP server v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	logger.Info("MCP server starting",
		zap.String("version", version),
		zap.String("mode", *mode),
		zap.String("addr", *addr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nsManager, err := initializeNamespaces(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize namespace manager", zap.Error(err))
	}
	defer nsManager.Close()

	server := mcp.NewServer(mcp.ServerConfig{
		Logger:     logger,
		Namespaces: nsManager,
		Name:       "synapse-hybridstore",
		Version:    version,
	})

	logger.Info("MCP server initialized",
		zap.Int("tools", len(server.GetToolNames())))

	var transport mcp.Transport
	switch *mode {
	case "stdio":
		transport = mcp.NewStdioTransport(logger)
	case "http":
		transport = mcp.NewHTTPTransport(*addr, logger)
	default:
		logger.Fatal("Unknown transport mode", zap.String("mode", *mode))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Serve(ctx, server)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("Transport error", zap.Error(err))
		}
	}

	logger.Info("MCP server stopped")
}

// initializeNamespaces wires a namespace manager the same way synapsed does:
// shared hot cache, best-effort NATS event publishing, env-derived storage
// and embedding config.
func initializeNamespaces(ctx context.Context, logger *zap.Logger) (*namespace.Manager, error) {
	cfg := config.FromEnv()

	hot, err := cache.New(cfg.CacheMaxCost, cfg.CacheTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("construct cache: %w", err)
	}

	pub, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		pub, _ = events.Connect("", logger)
	}

	embCfg := embedding.ConfigFromEnv()
	nsManager, err := namespace.New(cfg.StoragePath, embCfg.Dim, embCfg, hot, pub, logger)
	if err != nil {
		return nil, fmt.Errorf("construct namespace manager: %w", err)
	}

	nsManager.StartCompactionSweep(ctx, cfg.CompactionInterval)

	logger.Info("namespace manager initialized", zap.String("storage_path", cfg.StoragePath))
	return nsManager, nil
}

// setupLogger creates a configured zap logger
func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if *mode == "stdio" {
		// Use console encoding for stdio mode (for Claude Desktop)
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to default logger
		return zap.NewExample()
	}

	return logger
}
