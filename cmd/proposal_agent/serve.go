package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/config"
	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/server"
	"github.com/jonathan/proposal-writer/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for generating, streaming, revising and saving proposals.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to config port or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireKeys(cfg); err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Options{
		Port:      cfg.Port,
		Generator: a.pipeline,
		Reviser:   a.reviser,
		Briefs:    a.ingester,
		Archive:   a.archive,
		RateLimit: ratelimit.LoadConfig(),
		Logger:    logger,
		Metrics:   a.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("serving proposals",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store),
		zap.Int("api_keys", len(cfg.APIKeys)))
	return srv.Start(ctx)
}

// requireKeys refuses to serve when no usable credential is configured.
func requireKeys(cfg *config.Config) error {
	if keypool.New(cfg.APIKeys).Size() == 0 {
		return fmt.Errorf("%w: set GEMINI_API_KEYS (or OPENAI_API_KEYS) or pass --api-keys", keypool.ErrNoCredentialsConfigured)
	}
	return nil
}
