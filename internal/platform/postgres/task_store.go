package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calderw/studydeck-api/internal/platform/logger"
	"github.com/calderw/studydeck-api/internal/store"
	"github.com/calderw/studydeck-api/internal/task"
)

// TaskFactory reconstructs an executable task from its persisted row.
// Recovery needs it because the database stores only the task type and
// payload; the concrete task's collaborators (services, stores) live in
// the application and must be re-injected on load.
type TaskFactory func(taskType string, id uuid.UUID, payload []byte) (task.Task, error)

// PostgresTaskStore implements the task.Store interface using PostgreSQL.
type PostgresTaskStore struct {
	db      store.DBTX
	factory TaskFactory
	logger  *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. The factory may be
// nil when recovery is not needed (for example in tests); loading tasks
// then fails with an explicit error instead of returning inert tasks.
func NewPostgresTaskStore(db store.DBTX, factory TaskFactory, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:      db,
		factory: factory,
		logger:  logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.Store
var _ task.Store = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// UpdateTaskStatus updates the status and error message of a task.
// A missing task is treated as a no-op: the row may have been cleaned up
// while the task was in flight.
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.Status, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no task found to update status", slog.String("task_id", taskID.String()))
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.StatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// only those untouched for longer than olderThan.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.StatusProcessing, olderThan)
}

// WithTx implements task.Store.WithTx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.Store {
	return &PostgresTaskStore{
		db:      tx,
		factory: s.factory,
		logger:  s.logger,
	}
}

func (s *PostgresTaskStore) getTasksByStatus(ctx context.Context, status task.Status, olderThan time.Duration) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload
		FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC
	`
	args := []any{status}
	if olderThan > 0 {
		query = `
			SELECT id, type, payload
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var id uuid.UUID
		var taskType string
		var payload []byte

		if err := rows.Scan(&id, &taskType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		t, err := s.rebuild(taskType, id, payload)
		if err != nil {
			// A task that cannot be rebuilt would fail on every restart;
			// mark it failed and move on rather than wedging recovery.
			log.Error("failed to rebuild persisted task, marking failed",
				slog.String("task_id", id.String()),
				slog.String("task_type", taskType),
				slog.String("error", err.Error()))
			if updateErr := s.UpdateTaskStatus(ctx, id, task.StatusFailed, err.Error()); updateErr != nil {
				log.Error("failed to mark unrebuildable task failed",
					slog.String("task_id", id.String()),
					slog.String("error", updateErr.Error()))
			}
			continue
		}

		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

func (s *PostgresTaskStore) rebuild(taskType string, id uuid.UUID, payload []byte) (task.Task, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("no task factory configured for task type %q", taskType)
	}
	return s.factory(taskType, id, payload)
}
