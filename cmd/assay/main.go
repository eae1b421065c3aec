package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Assay/internal/api"
	"github.com/MikeSquared-Agency/Assay/internal/config"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
	"github.com/MikeSquared-Agency/Assay/internal/swgcraft"
	"github.com/MikeSquared-Agency/Assay/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("assay exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Class table
	reg := resource.NewRegistry()
	var err error
	if cfg.Classes.Path != "" {
		err = reg.LoadFile(cfg.Classes.Path)
	} else {
		err = reg.LoadBuiltin()
	}
	if err != nil {
		return fmt.Errorf("load class table: %w", err)
	}
	logger.Info("class table loaded", "classes", reg.Len(), "path", cfg.Classes.Path)

	// Database
	if cfg.Database.Migrate {
		if err := store.RunMigrations(ctx, cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// SWGCraft (optional)
	var swgClient swgcraft.Client
	if cfg.SWGCraft.URL != "" {
		swgClient = swgcraft.NewHTTPClient(cfg.SWGCraft.URL, cfg.SWGCraft.Token)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	rater := scoring.NewRater(reg.ReducedCapsSource(), cfg.Rating.ZeroIsMax, cfg.Rating.ReducedCap, logger)

	// Tracker
	t := tracker.New(db, hermesClient, swgClient, reg, rater, m, cfg, logger)
	t.SetupSubscriptions()
	t.Start(ctx)
	defer t.Stop()
	logger.Info("tracker started", "sync_interval", cfg.SyncInterval(), "galaxy", cfg.SWGCraft.Galaxy)

	router := api.NewRouter(db, t, reg, rater, api.RouterConfig{
		AdminToken:      cfg.Server.AdminToken,
		DefaultLimit:    cfg.Rating.DefaultLimit,
		WritesPerMinute: cfg.Server.WritesPerMinute,
	}, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	serve := func(name string, srv *http.Server) {
		g.Go(func() error {
			logger.Info(name+" server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", name, err)
			}
			return nil
		})
	}
	serve("API", apiServer)
	serve("metrics", metricsServer)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
