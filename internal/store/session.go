package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/google/uuid"
)

// SessionStore defines the interface for persisting study sessions.
type SessionStore interface {
	// Create saves a new study session.
	// Returns ErrInvalidEntity (wrapping the validation error) if the
	// session fails domain validation.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a study session by its ID.
	// Returns ErrSessionNotFound if no session exists with the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// List retrieves sessions ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.StudySession, error)

	// UpdateStatus sets the session's processing status.
	// Returns ErrSessionNotFound if no session exists with the given ID.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error

	// SetMaterial attaches generated material to the session and marks it
	// completed. Returns ErrSessionNotFound if no session exists.
	SetMaterial(ctx context.Context, id uuid.UUID, material json.RawMessage) error

	// Delete removes a session.
	// Returns ErrSessionNotFound if no session exists with the given ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a SessionStore bound to the given transaction so
	// multiple operations can share one transaction managed by the caller.
	WithTx(tx *sql.Tx) SessionStore
}
