package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
	"github.com/calderw/studydeck-api/internal/store"
	"github.com/calderw/studydeck-api/internal/task"
	"github.com/google/uuid"
)

// TaskSubmitter persists and enqueues background tasks. Satisfied by
// task.Runner.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// SessionService manages the study session lifecycle: creation with
// background synthesis, retrieval, listing, and deletion.
type SessionService struct {
	sessions    store.SessionStore
	submitter   TaskSubmitter
	synthesizer task.Synthesizer
	logger      *slog.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(
	sessions store.SessionStore,
	submitter TaskSubmitter,
	synthesizer task.Synthesizer,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions:    sessions,
		submitter:   submitter,
		synthesizer: synthesizer,
		logger:      logger.With(slog.String("component", "session_service")),
	}
}

// CreateSessionAndEnqueue creates a pending session from the uploaded
// content and schedules background synthesis for it. It returns as soon
// as the session row exists and the task is queued; the client polls the
// session until its status reaches completed or failed.
func (s *SessionService) CreateSessionAndEnqueue(
	ctx context.Context,
	title string,
	parts []generation.ContentPart,
	subject generation.Subject,
) (*domain.StudySession, error) {
	session, err := domain.NewStudySession(title, combineSourceText(parts), string(subject))
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	synthesis, err := task.NewSynthesisTask(session.ID, parts, subject, s.synthesizer, s.sessions, s.logger)
	if err != nil {
		s.markFailed(ctx, session.ID)
		return nil, fmt.Errorf("failed to create synthesis task: %w", err)
	}

	if err := s.submitter.Submit(ctx, synthesis); err != nil {
		s.markFailed(ctx, session.ID)
		return nil, fmt.Errorf("failed to enqueue synthesis task: %w", err)
	}

	s.logger.InfoContext(ctx, "session created and synthesis enqueued",
		"session_id", session.ID,
		"subject", subject,
		"parts", len(parts))

	return session, nil
}

// GetSession retrieves a session by ID.
// Returns store.ErrSessionNotFound when no session exists.
func (s *SessionService) GetSession(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	return s.sessions.GetByID(ctx, id)
}

// ListSessions retrieves sessions ordered newest first.
func (s *SessionService) ListSessions(ctx context.Context, limit, offset int) ([]*domain.StudySession, error) {
	return s.sessions.List(ctx, limit, offset)
}

// DeleteSession removes a session and its material.
// Returns store.ErrSessionNotFound when no session exists.
func (s *SessionService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "session deleted", "session_id", id)
	return nil
}

// markFailed best-effort flips a session to failed after enqueueing broke
// down, so the client is not left polling a pending session forever.
func (s *SessionService) markFailed(ctx context.Context, id uuid.UUID) {
	if err := s.sessions.UpdateStatus(ctx, id, domain.SessionStatusFailed); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark session failed",
			"session_id", id,
			"error", err)
	}
}

// combineSourceText concatenates the text parts of an upload into the
// source text stored on the session row. Image bytes are not persisted,
// only their filenames, so a recovered synthesis still sees which
// attachments existed.
func combineSourceText(parts []generation.ContentPart) string {
	var combined string
	for _, p := range parts {
		if p.IsImage() {
			combined += "[attached image: " + p.Filename + "]\n\n"
			continue
		}
		combined += p.Text + "\n\n"
	}
	return combined
}
