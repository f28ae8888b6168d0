package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
	"github.com/calderw/studydeck-api/internal/store"
	"github.com/calderw/studydeck-api/internal/task"
)

// mockSessionStore implements store.SessionStore with function fields.
type mockSessionStore struct {
	createFn       func(ctx context.Context, session *domain.StudySession) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)
	listFn         func(ctx context.Context, limit, offset int) ([]*domain.StudySession, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
	setMaterialFn  func(ctx context.Context, id uuid.UUID, material json.RawMessage) error
	deleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrSessionNotFound
}

func (m *mockSessionStore) List(ctx context.Context, limit, offset int) ([]*domain.StudySession, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockSessionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockSessionStore) SetMaterial(ctx context.Context, id uuid.UUID, material json.RawMessage) error {
	if m.setMaterialFn != nil {
		return m.setMaterialFn(ctx, id, material)
	}
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSessionStore) WithTx(tx *sql.Tx) store.SessionStore { return m }

// mockSubmitter records submitted tasks.
type mockSubmitter struct {
	submitted []task.Task
	submitErr error
}

func (m *mockSubmitter) Submit(ctx context.Context, t task.Task) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, t)
	return nil
}

// stubSynthesizer satisfies task.Synthesizer; session service tests never
// reach synthesis.
type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, parts []generation.ContentPart, subject generation.Subject) *domain.StudyMaterial {
	return FallbackStudyMaterial()
}

func TestSessionService_CreateSessionAndEnqueue(t *testing.T) {
	t.Parallel()

	var created *domain.StudySession
	sessions := &mockSessionStore{
		createFn: func(ctx context.Context, session *domain.StudySession) error {
			created = session
			return nil
		},
	}
	submitter := &mockSubmitter{}
	svc := NewSessionService(sessions, submitter, stubSynthesizer{}, testLogger())

	parts := []generation.ContentPart{
		generation.NewTextPart("mitosis notes", "bio.txt"),
		generation.NewImagePart([]byte{0x89, 0x50}, "image/png", "diagram.png"),
	}

	session, err := svc.CreateSessionAndEnqueue(context.Background(), "Bio revision", parts, generation.SubjectSTEM)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, domain.SessionStatusPending, session.Status)
	assert.Equal(t, "Bio revision", session.Title)
	assert.Equal(t, "stem", session.Subject)

	// Text content is persisted; image bytes are not, only a marker.
	assert.Contains(t, session.SourceText, "mitosis notes")
	assert.Contains(t, session.SourceText, "[attached image: diagram.png]")
	assert.NotContains(t, session.SourceText, "\x89P")

	require.NotNil(t, created)
	assert.Equal(t, session.ID, created.ID)

	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, task.TypeSynthesis, submitter.submitted[0].Type())
}

func TestSessionService_CreateFailsOnEmptyTitle(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(&mockSessionStore{}, &mockSubmitter{}, stubSynthesizer{}, testLogger())

	_, err := svc.CreateSessionAndEnqueue(context.Background(), "",
		[]generation.ContentPart{generation.NewTextPart("notes", "")}, generation.SubjectGeneral)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptySessionTitle)
}

func TestSessionService_CreateFailsWhenStoreFails(t *testing.T) {
	t.Parallel()

	sessions := &mockSessionStore{
		createFn: func(ctx context.Context, session *domain.StudySession) error {
			return errors.New("db down")
		},
	}
	submitter := &mockSubmitter{}
	svc := NewSessionService(sessions, submitter, stubSynthesizer{}, testLogger())

	_, err := svc.CreateSessionAndEnqueue(context.Background(), "Notes",
		[]generation.ContentPart{generation.NewTextPart("x", "")}, generation.SubjectGeneral)
	require.Error(t, err)
	assert.Empty(t, submitter.submitted)
}

func TestSessionService_EnqueueFailureMarksSessionFailed(t *testing.T) {
	t.Parallel()

	var failedID uuid.UUID
	sessions := &mockSessionStore{
		updateStatusFn: func(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
			if status == domain.SessionStatusFailed {
				failedID = id
			}
			return nil
		},
	}
	submitter := &mockSubmitter{submitErr: errors.New("queue full")}
	svc := NewSessionService(sessions, submitter, stubSynthesizer{}, testLogger())

	_, err := svc.CreateSessionAndEnqueue(context.Background(), "Notes",
		[]generation.ContentPart{generation.NewTextPart("x", "")}, generation.SubjectGeneral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enqueue")
	assert.NotEqual(t, uuid.Nil, failedID)
}

func TestSessionService_GetSession_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(&mockSessionStore{}, &mockSubmitter{}, stubSynthesizer{}, testLogger())

	_, err := svc.GetSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionService_ListSessions(t *testing.T) {
	t.Parallel()

	want := []*domain.StudySession{{ID: uuid.New(), Title: "A"}, {ID: uuid.New(), Title: "B"}}
	sessions := &mockSessionStore{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.StudySession, error) {
			assert.Equal(t, 20, limit)
			assert.Equal(t, 40, offset)
			return want, nil
		},
	}
	svc := NewSessionService(sessions, &mockSubmitter{}, stubSynthesizer{}, testLogger())

	got, err := svc.ListSessions(context.Background(), 20, 40)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionService_DeleteSession(t *testing.T) {
	t.Parallel()

	deleted := uuid.Nil
	sessions := &mockSessionStore{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	svc := NewSessionService(sessions, &mockSubmitter{}, stubSynthesizer{}, testLogger())

	id := uuid.New()
	require.NoError(t, svc.DeleteSession(context.Background(), id))
	assert.Equal(t, id, deleted)
}
