package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/config"
	"github.com/jonathan/proposal-writer/internal/db"
	"github.com/jonathan/proposal-writer/internal/fetch"
	"github.com/jonathan/proposal-writer/internal/ingestion"
	"github.com/jonathan/proposal-writer/internal/keypool"
	"github.com/jonathan/proposal-writer/internal/llm"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/pipeline"
	"github.com/jonathan/proposal-writer/internal/retry"
	"github.com/jonathan/proposal-writer/internal/revision"
	"github.com/jonathan/proposal-writer/internal/store"
	"github.com/jonathan/proposal-writer/internal/supabase"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "proposal_agent"

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	records  store.RecordStore
	archive  store.ProposalArchive
	pool     *keypool.RotatingPool
	pipeline *pipeline.Pipeline
	reviser  *revision.Engine
	ingester *ingestion.Ingester

	closers []func()
}

// loadConfig resolves configuration from the --config file, the environment
// and defaults, then applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if keys := config.ParseList(apiKeysFlag); len(keys) > 0 {
		cfg.APIKeys = keys
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger for a command. CLI commands log to stderr so
// stdout carries only their output.
func newLogger(cfg *config.Config, toStderr bool) (*zap.Logger, error) {
	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	if toStderr {
		if !cfg.Verbose && cfg.LogLevel == config.DefaultLogLevel {
			level = "warn"
		}
		return observability.NewStderrLogger(level, true)
	}
	return observability.NewLogger(level, cfg.Verbose)
}

// newApp wires the record store, credential pool, retry executor, model
// client and generation stages.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	logger = observability.OrNop(logger)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(metricsNamespace),
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.pool = keypool.New(cfg.APIKeys, keypool.WithRotateHook(func(_, _ int) {
		a.metrics.IncKeyRotation()
	}))
	if a.pool.Size() == 0 {
		logger.Warn("no API keys configured; model calls will fail",
			zap.String("hint", "set GEMINI_API_KEYS or pass --api-keys"))
	}

	exec := retry.NewExecutor(a.pool, retry.Options{
		Classifier:     keypool.NewClassifier(cfg.QuotaPatterns),
		AttemptTimeout: cfg.ModelTimeout(),
		Logger:         logger,
		Metrics:        a.metrics,
	})

	llmConfig := llm.ConfigFor(llm.Provider(cfg.Provider))
	llmConfig.BaseURL = cfg.BaseURL
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.Model)
	}
	cache := llm.NewClientCache(llm.NewFactory(llmConfig))
	model := llm.NewRotatingClient(exec, cache)
	a.closers = append(a.closers, func() {
		if err := model.Close(); err != nil {
			logger.Warn("failed to close model clients", zap.Error(err))
		}
	})

	a.pipeline = pipeline.New(pipeline.Options{
		Records: a.records,
		Model:   model,
		Logger:  logger,
		Metrics: a.metrics,
	})
	a.reviser = revision.New(model, logger)

	var render fetch.Renderer
	if cfg.UseBrowser {
		render = fetch.BrowserRenderer(fetch.DefaultBrowserTimeout, logger)
	}
	a.ingester = ingestion.NewIngester(fetch.NewCachedFetcher(nil), render, logger)

	logger.Debug("runtime ready",
		zap.String("provider", cfg.Provider),
		zap.String("store", cfg.Store),
		zap.Int("api_keys", a.pool.Size()),
		zap.Duration("model_timeout", cfg.ModelTimeout()))
	return a, nil
}

// openStore connects the configured record store. Backends that can archive
// proposals also become the archive.
func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store {
	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		database, err := db.Connect(connectCtx, a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		if err := database.Migrate(connectCtx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.records, a.archive = database, database

	case config.StoreSupabase:
		sb, err := supabase.New(a.cfg.SupabaseURL, a.cfg.SupabaseKey)
		if err != nil {
			return err
		}
		a.records, a.archive = sb, sb

	case config.StoreFile:
		mem, err := store.LoadCatalogFile(a.cfg.CatalogPath)
		if err != nil {
			return err
		}
		a.records, a.archive = mem, mem

	default:
		mem := store.NewMemory()
		a.records, a.archive = mem, mem
	}
	return nil
}

// Close releases store connections and model clients.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// setup loads configuration and wires the app for a command.
func setup(ctx context.Context, toStderr bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, toStderr)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}
