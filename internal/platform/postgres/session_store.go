package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/platform/logger"
	"github.com/calderw/studydeck-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface using
// a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface. The caller owns the database handle. If logger
// is nil, the default logger is used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO study_sessions (id, title, source_text, subject, status, material, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.Title,
		session.SourceText,
		session.Subject,
		session.Status,
		nullableJSON(session.Material),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create session",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("session created", slog.String("session_id", session.ID.String()))
	return nil
}

// GetByID implements store.SessionStore.GetByID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, source_text, subject, status, material, created_at, updated_at
		FROM study_sessions
		WHERE id = $1
	`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return session, nil
}

// List implements store.SessionStore.List, newest first.
func (s *PostgresSessionStore) List(ctx context.Context, limit, offset int) ([]*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, title, source_text, subject, status, material, created_at, updated_at
		FROM study_sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		log.Error("failed to list sessions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// UpdateStatus implements store.SessionStore.UpdateStatus.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE study_sessions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update session status",
			slog.String("session_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "study session"); err != nil {
		return store.ErrSessionNotFound
	}

	log.Debug("session status updated",
		slog.String("session_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SetMaterial implements store.SessionStore.SetMaterial: it attaches the
// material document and marks the session completed in one statement.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) SetMaterial(ctx context.Context, id uuid.UUID, material json.RawMessage) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE study_sessions
		SET material = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		[]byte(material), domain.SessionStatusCompleted, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set session material",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "study session"); err != nil {
		return store.ErrSessionNotFound
	}

	return nil
}

// Delete implements store.SessionStore.Delete.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete session",
			slog.String("session_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "study session"); err != nil {
		return store.ErrSessionNotFound
	}

	log.Debug("session deleted", slog.String("session_id", id.String()))
	return nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession reads one study_sessions row.
func scanSession(row rowScanner) (*domain.StudySession, error) {
	var session domain.StudySession
	var material []byte

	err := row.Scan(
		&session.ID,
		&session.Title,
		&session.SourceText,
		&session.Subject,
		&session.Status,
		&material,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(material) > 0 {
		session.Material = json.RawMessage(material)
	}

	return &session, nil
}

// nullableJSON converts empty material to a SQL NULL so the column stays
// NULL until synthesis completes.
func nullableJSON(material json.RawMessage) any {
	if len(material) == 0 {
		return nil
	}
	return []byte(material)
}
