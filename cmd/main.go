package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mobilecsp/activityscores/internal/adapters/eventstore"
	"github.com/mobilecsp/activityscores/internal/adapters/http/api"
	"github.com/mobilecsp/activityscores/internal/adapters/repository"
	"github.com/mobilecsp/activityscores/internal/adapters/roster"
	app "github.com/mobilecsp/activityscores/internal/app"
	"github.com/mobilecsp/activityscores/internal/config"
	"github.com/mobilecsp/activityscores/internal/domain/catalog"
	"github.com/mobilecsp/activityscores/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Course catalog: loaded from the exported JSON when configured, empty
	// otherwise.
	var cat catalog.Catalog = catalog.NewMemoryCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			os.Stderr.WriteString("failed to load catalog: " + err.Error() + "\n")
			return
		}
		cat = loaded
		log.Info(ctx, "catalog loaded",
			logger.String("path", cfg.CatalogPath),
			logger.Int("instances", len(loaded.Descriptors())),
		)
	}

	// Event store on SQLite.
	events, err := eventstore.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		os.Stderr.WriteString("failed to open event store: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = events.Close()
	}()

	// Events carry the student's email as the user id, so the roster is the
	// identity mapping. Deployments with a separate enrollment table swap in
	// a real roster here.
	svc := app.New(cat, events, roster.Identity{}, repository.NewMemoryStore(),
		app.WithLogger(log),
		app.WithBatchSize(cfg.BatchSize),
		app.WithReportEvery(cfg.ReportEvery),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithMaxStudents(cfg.MaxStudentsPerRequest),
	)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
