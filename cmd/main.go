// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnavgupta/campus-events-api/internal/config"
	"github.com/arnavgupta/campus-events-api/internal/database"
	"github.com/arnavgupta/campus-events-api/internal/handler"
	"github.com/arnavgupta/campus-events-api/internal/repository"
	"github.com/arnavgupta/campus-events-api/internal/service"
	"github.com/arnavgupta/campus-events-api/internal/token"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := database.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		return err
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres")

	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	issuer := token.NewIssuer([]byte(cfg.SessionSecret), cfg.SessionTTL)

	authSvc := service.NewAuthService(userRepo, issuer)
	eventSvc := service.NewEventService(eventRepo)
	reservationSvc := service.NewReservationService(reservationRepo, eventRepo)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		log.Info("bootstrap admin ensured", "email", cfg.AdminEmail)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.NewRouter(log, issuer, authSvc, eventSvc, reservationSvc),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
