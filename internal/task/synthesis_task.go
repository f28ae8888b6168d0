package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilSynthesizer  = errors.New("synthesizer cannot be nil")
	ErrNilSessionStore = errors.New("session store cannot be nil")
	ErrEmptySessionID  = errors.New("session ID cannot be empty")
)

// Synthesizer produces study material from content parts. Implemented by
// the study service façade; by contract it never returns an error, only
// material or the documented fallback.
type Synthesizer interface {
	Synthesize(ctx context.Context, parts []generation.ContentPart, subject generation.Subject) *domain.StudyMaterial
}

// SessionStore is the slice of session persistence this task needs.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
	SetMaterial(ctx context.Context, id uuid.UUID, material json.RawMessage) error
}

// synthesisPayload is the serialized task data persisted with the task
// row. Image parts are not persisted; a task recovered after a restart
// re-synthesizes from the session's stored source text.
type synthesisPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Subject   string    `json:"subject"`
}

// SynthesisTask generates study material for one session and stores it
// on the session row.
type SynthesisTask struct {
	id           uuid.UUID
	sessionID    uuid.UUID
	subject      generation.Subject
	parts        []generation.ContentPart
	synthesizer  Synthesizer
	sessionStore SessionStore
	logger       *slog.Logger
	status       Status
}

// NewSynthesisTask creates a synthesis task for a freshly created session,
// carrying the uploaded content parts in memory.
func NewSynthesisTask(
	sessionID uuid.UUID,
	parts []generation.ContentPart,
	subject generation.Subject,
	synthesizer Synthesizer,
	sessionStore SessionStore,
	logger *slog.Logger,
) (*SynthesisTask, error) {
	return newSynthesisTask(uuid.New(), sessionID, parts, subject, synthesizer, sessionStore, logger)
}

// RecoverSynthesisTask reconstructs a synthesis task from its persisted
// payload. The recovered task has no in-memory content parts and falls
// back to the session's stored source text.
func RecoverSynthesisTask(
	id uuid.UUID,
	payload []byte,
	synthesizer Synthesizer,
	sessionStore SessionStore,
	logger *slog.Logger,
) (*SynthesisTask, error) {
	var p synthesisPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode synthesis payload: %w", err)
	}
	return newSynthesisTask(id, p.SessionID, nil, generation.Subject(p.Subject), synthesizer, sessionStore, logger)
}

func newSynthesisTask(
	id, sessionID uuid.UUID,
	parts []generation.ContentPart,
	subject generation.Subject,
	synthesizer Synthesizer,
	sessionStore SessionStore,
	logger *slog.Logger,
) (*SynthesisTask, error) {
	if synthesizer == nil {
		return nil, ErrNilSynthesizer
	}
	if sessionStore == nil {
		return nil, ErrNilSessionStore
	}
	if sessionID == uuid.Nil {
		return nil, ErrEmptySessionID
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SynthesisTask{
		id:           id,
		sessionID:    sessionID,
		subject:      subject,
		parts:        parts,
		synthesizer:  synthesizer,
		sessionStore: sessionStore,
		logger:       logger.With("task_type", TypeSynthesis, "session_id", sessionID),
		status:       StatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *SynthesisTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *SynthesisTask) Type() string {
	return TypeSynthesis
}

// Payload returns the serialized task data
func (t *SynthesisTask) Payload() []byte {
	data, err := json.Marshal(synthesisPayload{
		SessionID: t.sessionID,
		Subject:   string(t.subject),
	})
	if err != nil {
		// synthesisPayload contains only marshalable fields
		t.logger.Error("failed to marshal synthesis payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current task status
func (t *SynthesisTask) Status() Status {
	return t.status
}

// Execute synthesizes study material for the session. The synthesizer
// never fails (it degrades to fallback material), so the only failure
// modes here are persistence errors.
func (t *SynthesisTask) Execute(ctx context.Context) error {
	t.status = StatusProcessing

	session, err := t.sessionStore.GetByID(ctx, t.sessionID)
	if err != nil {
		t.status = StatusFailed
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := t.sessionStore.UpdateStatus(ctx, t.sessionID, domain.SessionStatusProcessing); err != nil {
		t.status = StatusFailed
		return fmt.Errorf("failed to mark session processing: %w", err)
	}

	parts := t.parts
	if len(parts) == 0 {
		parts = []generation.ContentPart{generation.NewTextPart(session.SourceText, "")}
	}

	material := t.synthesizer.Synthesize(ctx, parts, t.subject)

	encoded, err := json.Marshal(material)
	if err != nil {
		t.markSessionFailed(ctx)
		t.status = StatusFailed
		return fmt.Errorf("failed to encode study material: %w", err)
	}

	if err := t.sessionStore.SetMaterial(ctx, t.sessionID, encoded); err != nil {
		t.markSessionFailed(ctx)
		t.status = StatusFailed
		return fmt.Errorf("failed to store study material: %w", err)
	}

	t.status = StatusCompleted
	t.logger.Info("session material stored",
		"flashcards", len(material.Flashcards),
		"quiz_questions", len(material.Quiz))
	return nil
}

// markSessionFailed best-effort flips the session to failed so the client
// is not left polling a session that will never complete.
func (t *SynthesisTask) markSessionFailed(ctx context.Context) {
	if err := t.sessionStore.UpdateStatus(ctx, t.sessionID, domain.SessionStatusFailed); err != nil {
		t.logger.Error("failed to mark session failed", "error", err)
	}
}
