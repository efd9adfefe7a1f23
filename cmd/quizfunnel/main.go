package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/quizlab-dev/quizfunnel/internal/auth"
	"github.com/quizlab-dev/quizfunnel/internal/checkout"
	corecfg "github.com/quizlab-dev/quizfunnel/internal/core/config"
	"github.com/quizlab-dev/quizfunnel/internal/core/storage/postgres"
	redisstore "github.com/quizlab-dev/quizfunnel/internal/core/storage/redis"
	"github.com/quizlab-dev/quizfunnel/internal/dashboard"
	"github.com/quizlab-dev/quizfunnel/internal/ingestion"
	"github.com/quizlab-dev/quizfunnel/internal/metrics"
	"github.com/quizlab-dev/quizfunnel/internal/migrations"
	"github.com/quizlab-dev/quizfunnel/internal/questions"
	"github.com/quizlab-dev/quizfunnel/internal/recorder"
	"github.com/quizlab-dev/quizfunnel/internal/server"
	"github.com/quizlab-dev/quizfunnel/internal/session"
)

func main() {
	configPath := flag.String("config", "quizfunnel.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"backend", cfg.Database.Type,
		"addr", fmtAddr(cfg.Server.Host, cfg.Server.Port))

	// 2. Initialize the metrics backend selected by config
	backend, health, closer, err := buildBackend(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics backend", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	store := metrics.NewStore(backend)

	// 3. Initialize Prometheus instrumentation
	registry := prometheus.NewRegistry()
	ops := recorder.NewMetrics()
	if err := ops.Register(registry); err != nil {
		slog.Error("Failed to register recorder metrics", "error", err)
		os.Exit(1)
	}

	rec := recorder.New(store, recorder.Locale{
		Country: cfg.Funnel.VisitorCountry,
		Region:  cfg.Funnel.VisitorRegion,
		City:    cfg.Funnel.VisitorCity,
	}, ops)

	// 4. Load the quiz question set
	qs, err := questions.Load(cfg.Questions.Path)
	if err != nil {
		slog.Error("Failed to load questions", "path", cfg.Questions.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("Question set loaded", "count", qs.Len())

	// 5. Checkout formatter and dashboard auth
	formatter, err := checkout.NewFormatter(cfg.Checkout.BaseURL, cfg.Checkout.CountryCode)
	if err != nil {
		slog.Error("Failed to initialize checkout formatter", "error", err)
		os.Exit(1)
	}

	authz, err := auth.New(cfg.Dashboard.Secret, cfg.Dashboard.SigningKey, cfg.Dashboard.ParsedSessionTTL())
	if err != nil {
		slog.Error("Failed to initialize dashboard auth", "error", err)
		os.Exit(1)
	}

	// 6. Session state machine
	router, err := session.New(context.Background(), session.Config{
		Questions:       qs,
		Recorder:        rec,
		Navigator:       session.NewMemoryNavigator(session.Location{Path: session.PathRoot}),
		Auth:            authz,
		Formatter:       formatter,
		DiagnosisLevels: cfg.Funnel.DiagnosisLevels,
		ProcessingDelay: cfg.Funnel.ParsedProcessingDelay(),
	})
	if err != nil {
		slog.Error("Failed to initialize session router", "error", err)
		os.Exit(1)
	}

	// 7. Services
	ingestionSvc := ingestion.NewService(rec, cfg.Server.MaxBodySizeMB)
	dashboardSvc := dashboard.NewService(store, qs, authz)
	sessionHandler := session.NewHandler(router)

	// 8. HTTP server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), health, registry, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	dashboardSvc.RegisterRoutes(srv.Engine)
	sessionHandler.RegisterRoutes(srv.Engine)

	// 9. Run until a signal arrives
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("Signal received, shutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// buildBackend wires the metrics.Backend named by config. The second return
// is the health probe for /health (nil for the in-memory backend), the third
// the handle main must close on exit.
func buildBackend(cfg *corecfg.Config) (metrics.Backend, server.HealthChecker, io.Closer, error) {
	switch cfg.Database.Type {
	case "memory":
		return metrics.NewMemoryBackend(), nil, nil, nil

	case "postgres":
		adapter, err := postgres.NewAdapter(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
		)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.Run(adapter.DB(), cfg.Database.AutoMigrate); err != nil {
			adapter.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return adapter, adapter, adapter, nil

	case "redis":
		adapter, err := redisstore.NewAdapter(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.Key,
		)
		if err != nil {
			return nil, nil, nil, err
		}
		return adapter, adapter, adapter, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
