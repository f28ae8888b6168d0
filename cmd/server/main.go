// Package main implements the entry point for the StudyDeck API server,
// which turns uploaded study content into summaries, flashcards, and
// quizzes via LLM generation with retrying key rotation.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/calderw/studydeck-api/internal/config"
	"github.com/calderw/studydeck-api/internal/platform/logger"
)

func main() {
	// .env is for local development; absence is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// Run the server; shut down cleanly on SIGINT/SIGTERM.
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		appLogger.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			appLogger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
