package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/calderw/studydeck-api/internal/config"
	"github.com/calderw/studydeck-api/internal/generation"
	"github.com/calderw/studydeck-api/internal/platform/gemini"
	"github.com/calderw/studydeck-api/internal/platform/postgres"
	"github.com/calderw/studydeck-api/internal/service"
	"github.com/calderw/studydeck-api/internal/task"
)

// application holds the wired dependencies for the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	db     *sql.DB
	runner *task.Runner
	server *http.Server

	sessionService *service.SessionService
	studyService   *service.StudyService
}

// newApplication wires the full dependency graph: database, stores, the
// generation stack, services, the background task runner, and the HTTP
// server.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, err
	}

	sessionStore := postgres.NewPostgresSessionStore(db, logger)

	// Generation stack: credential pool, retrying executor, Gemini
	// transport, and the façade over them.
	pool := generation.NewKeyPool(cfg.LLM.APIKeys())
	if pool.Size() == 0 {
		logger.Warn("no usable Gemini API keys configured, generation will fail fast")
	}
	executor := generation.NewExecutor(pool, generation.ExecutorConfig{
		MaxAttempts: cfg.LLM.MaxAttempts,
		BaseDelay:   time.Duration(cfg.LLM.BaseDelayMs) * time.Millisecond,
	}, logger)

	caller, err := gemini.NewCaller(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini caller: %w", err)
	}

	studyService := service.NewStudyService(caller, executor, logger)

	// The task factory rebuilds synthesis tasks from persisted rows after
	// a restart, re-injecting the live services.
	factory := func(taskType string, id uuid.UUID, payload []byte) (task.Task, error) {
		switch taskType {
		case task.TypeSynthesis:
			return task.RecoverSynthesisTask(id, payload, studyService, sessionStore, logger)
		default:
			return nil, fmt.Errorf("unknown task type %q", taskType)
		}
	}

	taskStore := postgres.NewPostgresTaskStore(db, factory, logger)
	runner := task.NewRunner(taskStore, task.RunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)

	sessionService := service.NewSessionService(sessionStore, runner, studyService, logger)

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		runner:         runner,
		sessionService: sessionService,
		studyService:   studyService,
	}

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.setupRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	return app, nil
}

// Start launches the task runner and the HTTP server. Blocks until the
// server stops.
func (app *application) Start() error {
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	app.logger.Info("server listening",
		"addr", app.server.Addr,
		"workers", app.config.Task.WorkerCount)

	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, drains in-flight background
// tasks, and closes the database.
func (app *application) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down")

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown failed", "error", err)
	}

	app.runner.Stop()

	if err := app.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
