package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/handlers"
	"github.com/danielhkuo/greenery-survey/middleware"
	"github.com/danielhkuo/greenery-survey/pool"
	"github.com/danielhkuo/greenery-survey/router"
	"github.com/danielhkuo/greenery-survey/store"
)

const (
	sessionIdle   = 2 * time.Hour
	sweepInterval = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local runs
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	manifest, err := pool.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}
	slog.Info("Manifest loaded", "path", cfg.ManifestPath, "images", len(manifest.Images), "sample", manifest.SampleSize())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the response store (creates schema or bucket)
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("Store ready", "type", cfg.Store.Type)

	reg := handlers.NewRegistry(st, cfg.SaveTimeout, clock.System{})

	mux := router.NewRouter(cfg, reg, manifest, sqlDB(st))

	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := reg.Sweep(sessionIdle); n > 0 {
					slog.Info("idle sessions dropped", "count", n, "live", reg.Len())
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		// Stop new saves and let running ones finish before the store closes
		reg.Close()
		slog.Info("Server closed")
		return err
	})

	return g.Wait()
}

// sqlDB exposes the database behind a SQL store for the results endpoint.
func sqlDB(st store.Store) *sql.DB {
	if s, ok := st.(*store.SQLStore); ok {
		return s.DB()
	}
	return nil
}
