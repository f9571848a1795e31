package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"title-party/internal/config"
	"title-party/internal/db"
	"title-party/internal/game"
	"title-party/internal/logging"
	"title-party/internal/notify"
	"title-party/internal/server"
	"title-party/internal/store"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := config.NewViper()
	defaults := config.Default()
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:           "title-party",
		Short:         "Party game server where players build funny titles from word cards.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromViper(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, autoMigrate)
		},
	}

	fs := cmd.Flags()
	fs.Int("port", defaults.Port, "port to listen on (env: PORT)")
	fs.String("public-url", defaults.PublicURL, "public base URL used in join QR codes (env: PUBLIC_URL)")
	fs.String("database-url", "", "postgres connection string; empty keeps rooms in memory (env: DATABASE_URL)")
	fs.String("redis-addr", "", "redis address for cross-process change fan-out (env: REDIS_ADDR)")
	fs.String("log-level", defaults.LogLevel, "log level (env: LOG_LEVEL)")
	fs.String("log-format", defaults.LogFormat, "log format, json or console (env: LOG_FORMAT)")
	fs.String("catalog-path", defaults.CatalogPath, "word card and theme CSV (env: CATALOG_PATH)")
	fs.Int("sweep-interval-seconds", defaults.SweepIntervalSeconds, "how often overdue rooms are advanced (env: SWEEP_INTERVAL_SECONDS)")
	fs.BoolVar(&autoMigrate, "auto-migrate", false, "create tables and load the catalog on startup when using postgres")
	if err := config.BindFlags(fs, v); err != nil {
		cobra.CheckErr(err)
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

func run(ctx context.Context, cfg config.Config, autoMigrate bool) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo, health, closeRepo, err := openRepository(cfg, autoMigrate, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	bus := notify.NewBus()
	var notifier game.Notifier = bus
	if cfg.RedisAddr != "" {
		client, err := notify.DialRedis(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		relay := notify.NewRedisRelay(client, bus, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("redis relay stopped", zap.Error(err))
			}
		}()
		notifier = relay
	}

	engine := game.NewEngine(repo, cfg.GameRules(),
		game.WithNotifier(notifier),
		game.WithLogger(logger),
	)

	var opts []server.Option
	if health != nil {
		opts = append(opts, server.WithHealthCheck(health))
	}
	srv := server.New(engine, bus, cfg, logger, opts...)
	defer srv.Close()

	sweeper, err := server.NewSweeper(engine, cfg.SweepInterval(), logger)
	if err != nil {
		return err
	}
	sweeper.Start()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("title-party server listening", zap.String("addr", httpServer.Addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sweeper.Stop(shutdownCtx)
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRepository picks postgres when a database URL is configured and an
// in-memory store seeded from the catalog file otherwise.
func openRepository(cfg config.Config, autoMigrate bool, logger *zap.Logger) (game.Repository, func(context.Context) error, func(), error) {
	if cfg.DatabaseURL == "" {
		catalog, err := db.ReadCatalogFile(cfg.CatalogPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: read catalog: %w", game.ErrConfiguration, err)
		}
		repo := store.NewMemory()
		repo.SeedCatalog(catalog.Cards, catalog.Themes)
		logger.Warn("DATABASE_URL not set; rooms are kept in memory",
			zap.Int("cards", len(catalog.Cards)),
			zap.Int("themes", len(catalog.Themes)),
		)
		return repo, nil, func() {}, nil
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeConn := func() {
		if err := db.Close(conn); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}
	if autoMigrate {
		if err := db.Migrate(conn); err != nil {
			closeConn()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		catalog, err := db.ReadCatalogFile(cfg.CatalogPath)
		if err != nil {
			closeConn()
			return nil, nil, nil, fmt.Errorf("%w: read catalog: %w", game.ErrConfiguration, err)
		}
		loaded, err := db.LoadCatalog(conn, catalog)
		if err != nil {
			closeConn()
			return nil, nil, nil, fmt.Errorf("load catalog: %w", err)
		}
		logger.Info("catalog loaded", zap.Int("rows", loaded))
	}
	repo := store.NewGormStore(conn)
	return repo, repo.Ping, closeConn, nil
}
