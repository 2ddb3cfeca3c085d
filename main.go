package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rxpricedb/rxprice-api/config"
	"github.com/rxpricedb/rxprice-api/health"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/query"
	"github.com/rxpricedb/rxprice-api/resolver"
	"github.com/rxpricedb/rxprice-api/scheduler"
	"github.com/rxpricedb/rxprice-api/server"
	"github.com/rxpricedb/rxprice-api/store"
	"github.com/rxpricedb/rxprice-api/validation"
	"github.com/rxpricedb/rxprice-api/viewer"
)

func main() {
	// Read the env file; fall back to the executable's directory so the
	// binary can be launched from anywhere
	if err := godotenv.Load(); err != nil {
		if ex, exErr := os.Executable(); exErr == nil {
			_ = os.Chdir(filepath.Dir(ex))
			_ = godotenv.Load()
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogLevel)

	docStore, err := openStore(cfg)
	if err != nil {
		// A store that cannot open is fatal: nothing can be served
		logging.Error("Failed to open document store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer docStore.Close()

	paginator := query.NewPaginator(docStore, cfg.PageSize)
	controller := viewer.NewController(paginator, cfg.PageSize)
	validator := validation.NewDataValidator()
	checker := health.NewHealthChecker(controller)
	resolverClient := resolver.NewClient(cfg.ResolverURL)

	refreshScheduler := scheduler.NewRefreshScheduler(controller)
	if err := refreshScheduler.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer refreshScheduler.Stop()

	srv := server.NewServer(cfg, controller, validator, checker, resolverClient)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}

// openStore opens the configured document store backend and seeds it
// from the snapshot file when one is configured.
func openStore(cfg *config.Config) (interfaces.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem := store.NewMemStore(nil)
		return mem, nil
	default:
		badgerStore, err := store.OpenBadger(cfg.StorePath, logging.DefaultLoggingService.Logger)
		if err != nil {
			return nil, err
		}

		if cfg.SnapshotFile != "" {
			logging.Info("Seeding store from snapshot", "file", cfg.SnapshotFile)
			if err := badgerStore.SeedFromFile(cfg.SnapshotFile); err != nil {
				badgerStore.Close()
				return nil, err
			}
		}

		return badgerStore, nil
	}
}
