package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"opinavote/bot/internal/app"
	"opinavote/bot/internal/config"
	"opinavote/bot/internal/platform"
	"opinavote/bot/internal/scheduler"
	"opinavote/bot/internal/store"
	"opinavote/bot/internal/vote"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	ctx := context.Background()

	if err := vote.ValidateTables(); err != nil {
		log.Fatalf("category tables invalid: %v", err)
	}

	sessions, err := store.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer sessions.Close()

	client := platform.NewHTTPClient(cfg.PlatformURL, cfg.PlatformToken)

	sched, err := scheduler.NewGocron()
	if err != nil {
		log.Fatalf("scheduler init failed: %v", err)
	}

	service := app.New(cfg, sessions, client, sched)
	sched.RegisterTask(app.ReconcileJobName, func(ctx context.Context) {
		if err := service.Reconcile(ctx); err != nil {
			log.Printf("reconcile job: %v", err)
		}
	})

	if err := service.EnsureReconcileJob(ctx); err != nil {
		log.Printf("WARNING: reconcile job registration failed (will retry on next upgrade): %v", err)
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("scheduler shutdown: %v", err)
		}
	}()

	httpServer := app.NewHTTPServer(service)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Opinavote bot listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
