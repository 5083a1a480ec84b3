package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"

	"manager/internal/auth"
	"manager/internal/config"
	"manager/internal/logging"
	"manager/internal/models"
	"manager/internal/server"
	"manager/internal/storage/sqldb"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(2)
	}

	logger, closer := logging.New(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("manager stopped with error", slog.String("error", err.Error()))
		closer.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	store, err := sqldb.Open(sqldb.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	if err := bootstrapAdmin(context.Background(), store, cfg, logger); err != nil {
		return err
	}

	srv := server.New(store, tokens, logger, cfg.PageSize)

	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "X-Request-ID", "Content-Type", "Authorization"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	origins := gorillahandlers.AllowedOrigins(cfg.CORSOrigins)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gorillahandlers.CORS(headers, methods, origins)(srv.Engine()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", httpServer.Addr),
			slog.String("db_driver", cfg.DBDriver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// bootstrapAdmin creates the configured staff account on an empty database so the
// first sign-in is possible.
func bootstrapAdmin(ctx context.Context, store *sqldb.Store, cfg config.Config, logger *slog.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	n, err := store.CountWorkers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin, err := store.CreateWorker(ctx, models.Worker{
		Username:     cfg.AdminUsername,
		IsStaff:      true,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("created bootstrap admin", slog.String("username", admin.Username))
	return nil
}
