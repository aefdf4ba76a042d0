package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msomdec/userdata-api/internal/config"
	"github.com/msomdec/userdata-api/internal/domain"
	"github.com/msomdec/userdata-api/internal/handler"
	"github.com/msomdec/userdata-api/internal/repository/firestore"
	"github.com/msomdec/userdata-api/internal/repository/sqlite"
	"github.com/msomdec/userdata-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to provision database", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "backend", cfg.Backend)

	recordService := service.NewRecordService(db.Records(), service.NewCredentialCodec(cfg.BcryptCost))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, recordService)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.LogRequests(logger, handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (domain.Database, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.New(cfg.DatabasePath)
	default:
		return firestore.New(ctx, firestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.CredentialsFile,
			Collection:      cfg.FirestoreCollection,
		})
	}
}
