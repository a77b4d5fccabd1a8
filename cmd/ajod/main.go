package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ajochain/config"
	"ajochain/core"
	ledgerstate "ajochain/core/state"
	"ajochain/integrations/audit"
	"ajochain/integrations/webhooks"
	"ajochain/observability/logging"
	telemetry "ajochain/observability/otel"
	"ajochain/rpc"
	"ajochain/storage"
)

const envVar = "AJO_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	inMemory := flag.Bool("memory", false, "DEV ONLY: keep ledger state in memory instead of DataDir")
	allowMigrate := flag.Bool("allow-migrate", false, "Allow starting with a mismatched state schema (manual migrations only)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if env := strings.TrimSpace(os.Getenv(envVar)); env != "" {
		cfg.Environment = env
	}
	if *allowMigrate {
		cfg.Ledger.AllowMigrate = true
	}

	logger := logging.SetupWithOptions("ajod", cfg.Environment, logging.Options{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inMemory, logger); err != nil {
		logger.Error("ajod stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("ajod stopped")
}

func run(ctx context.Context, cfg *config.Config, inMemory bool, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetryConfig(cfg, inMemory))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := openStore(cfg.DataDir, inMemory)
	if err != nil {
		return err
	}
	defer db.Close()

	opts, err := nodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	node, err := core.NewNode(db, opts)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	closers, err := attachSinks(node, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}()

	secret, err := cfg.JWTSecret()
	if err != nil {
		return err
	}
	server, err := rpc.NewServer(node, serverConfig(cfg, secret, logger))
	if err != nil {
		return fmt.Errorf("create rpc server: %w", err)
	}
	logger.Info("ajod starting",
		slog.String("rpc", cfg.RPCAddress),
		slog.Any("assets", node.Assets()),
		slog.Bool("faucet", cfg.Ledger.EnableFaucet),
		slog.Bool("audit", cfg.Audit.Driver != ""),
		slog.Bool("webhook", cfg.Webhook.URL != ""))
	return server.Serve(ctx, cfg.RPCAddress)
}

func telemetryConfig(cfg *config.Config, inMemory bool) telemetry.Config {
	store := "leveldb"
	if inMemory {
		store = "memory"
	}
	return telemetry.Config{
		ServiceName:  "ajod",
		Environment:  cfg.Environment,
		Assets:       cfg.Ledger.Assets,
		StateVersion: ledgerstate.StateVersion,
		Store:        store,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		Headers:      telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:      cfg.Telemetry.Metrics,
		Traces:       cfg.Telemetry.Traces,
		SampleRatio:  cfg.Telemetry.SampleRatio,
	}
}

func openStore(dataDir string, inMemory bool) (storage.Database, error) {
	if inMemory {
		return storage.NewMemDB(), nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}
	db, err := storage.NewLevelDB(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func nodeOptions(cfg *config.Config, logger *slog.Logger) (core.Options, error) {
	owner, err := cfg.OwnerAccount()
	if err != nil {
		return core.Options{}, err
	}
	collector, err := cfg.FeeCollectorAccount()
	if err != nil {
		return core.Options{}, err
	}
	if owner == ([20]byte{}) {
		logger.Warn("ledger.Owner is empty; administrative calls will be rejected")
	}
	return core.Options{
		Owner:        owner,
		FeeCollector: collector,
		FeeBps:       cfg.Ledger.FeeBps,
		Assets:       cfg.Ledger.Assets,
		AllowMigrate: cfg.Ledger.AllowMigrate,
		Logger:       logger,
	}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// attachSinks wires the optional audit index and webhook forwarder onto the
// node's committed event stream.
func attachSinks(node *core.Node, cfg *config.Config, logger *slog.Logger) ([]io.Closer, error) {
	var closers []io.Closer
	if driver := strings.TrimSpace(cfg.Audit.Driver); driver != "" {
		db, err := audit.Open(driver, cfg.Audit.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		closers = append(closers, sqlDB)
		indexer, err := audit.NewIndexer(db, logger)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		node.AddSink(indexer)
	}
	if endpoint := strings.TrimSpace(cfg.Webhook.URL); endpoint != "" {
		secret, err := cfg.WebhookSecret()
		if err != nil {
			return closeAll(closers, err)
		}
		dispatcher, err := webhooks.NewDispatcher(endpoint, secret,
			webhooks.WithTopics(cfg.Webhook.Topics...),
			webhooks.WithLogger(logger))
		if err != nil {
			return closeAll(closers, err)
		}
		closers = append(closers, closerFunc(func() error { dispatcher.Close(); return nil }))
		node.AddSink(dispatcher)
	}
	return closers, nil
}

func closeAll(closers []io.Closer, cause error) ([]io.Closer, error) {
	errs := []error{cause}
	for _, closer := range closers {
		errs = append(errs, closer.Close())
	}
	return nil, errors.Join(errs...)
}

func serverConfig(cfg *config.Config, secret []byte, logger *slog.Logger) rpc.ServerConfig {
	seconds := func(v int) time.Duration { return time.Duration(v) * time.Second }
	return rpc.ServerConfig{
		JWT: rpc.JWTConfig{
			Secret:   secret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		RateLimit: rpc.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		EnableFaucet:      cfg.Ledger.EnableFaucet,
		ReadHeaderTimeout: seconds(cfg.RPCReadHeaderTimeout),
		ReadTimeout:       seconds(cfg.RPCReadTimeout),
		WriteTimeout:      seconds(cfg.RPCWriteTimeout),
		IdleTimeout:       seconds(cfg.RPCIdleTimeout),
		Logger:            logger,
	}
}
