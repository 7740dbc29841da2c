package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/e3ventures/e3cal/internal/api"
	appauth "github.com/e3ventures/e3cal/internal/auth"
	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/gcal"
	httpserver "github.com/e3ventures/e3cal/internal/http"
	"github.com/e3ventures/e3cal/internal/push"
	"github.com/e3ventures/e3cal/internal/reminder"
	"github.com/e3ventures/e3cal/internal/store"
)

const sweepInterval = 5 * time.Minute

func main() {
	log.Println("Starting E3 calendar server...")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)
	sessions := appauth.NewSessionManager(cfg)
	authService, err := appauth.NewService(ctx, cfg, stor.Credentials, sessions)
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	clients := gcal.NewFactory(cfg, stor.Credentials)
	sender := push.NewSender(cfg, stor.Subscriptions)
	sweeper := reminder.NewSweeper(stor.Credentials, func(ctx context.Context, userID string) (reminder.EventSource, error) {
		return clients.ClientFor(ctx, userID)
	}, stor.ReminderLog, sender)

	apiHandler := api.NewHandler(cfg, sessions, func(ctx context.Context, userID string) (api.CalendarService, error) {
		return clients.ClientFor(ctx, userID)
	}, stor.Subscriptions, sender, sweeper)

	r := httpserver.NewRouter(cfg, stor, authService, sessions, apiHandler)

	if cfg.SweepEnabled {
		go sweeper.Start(ctx, sweepInterval)
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
