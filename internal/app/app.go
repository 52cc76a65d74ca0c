package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaumene/schematizer/internal/config"
	"github.com/amaumene/schematizer/internal/handler"
	"github.com/amaumene/schematizer/internal/service"
	"github.com/amaumene/schematizer/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"
)

const (
	shutdownTimeout   = 30 * time.Second
	dbFilePermissions = 0666
	dbLockTimeout     = time.Second
)

type App struct {
	cfg          *config.Config
	server       *http.Server
	store        *bolthold.Store
	orchestrator *Orchestrator
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := configureLogging(cfg); err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	app := &App{
		cfg:   cfg,
		store: store,
	}
	app.wireServices()

	return app, nil
}

func configureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	return nil
}

func openStore(cfg *config.Config) (*bolthold.Store, error) {
	// A database file held by another process fails startup after
	// dbLockTimeout instead of blocking indefinitely.
	options := &bolthold.Options{Options: &bolt.Options{Timeout: dbLockTimeout}}
	store, err := bolthold.Open(cfg.DBPath(), dbFilePermissions, options)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func (a *App) wireServices() {
	registry := service.NewRegistryService(
		storage.NewSourceRepository(a.store),
		storage.NewTopicRepository(a.store),
		storage.NewSchemaRepository(a.store),
	)

	a.setupHTTPServer(registry)
	a.orchestrator = NewOrchestrator(a.cfg, registry)
}

func (a *App) setupHTTPServer(registry *service.RegistryService) {
	mux := http.NewServeMux()
	handler.NewHTTPHandler(registry).RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:    a.cfg.ListenAddr,
		Handler: mux,
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.orchestrator.RunPeriodically(ctx)

	go a.startServer()

	return a.waitForShutdown(ctx, cancel)
}

func (a *App) startServer() {
	log.WithFields(log.Fields{
		"component": "server",
		"address":   a.cfg.ListenAddr,
	}).Info("http server listening")

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Fatal("http server failed to start")
	}
}

func (a *App) waitForShutdown(ctx context.Context, cancel context.CancelFunc) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		log.WithField("reason", "context_cancelled").Info("initiating graceful shutdown")
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("received shutdown signal")
	}

	cancel()
	return a.shutdown()
}

// shutdown stops the HTTP server before closing the store, so no request
// can observe a closed database.
func (a *App) shutdown() error {
	log.Info("graceful shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Error("http server shutdown failed")
	}

	if err := a.store.Close(); err != nil {
		log.WithFields(log.Fields{
			"component": "database",
			"error":     err,
		}).Error("database connection close failed")
		return err
	}

	log.Info("graceful shutdown completed")
	return nil
}
