package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withTestTx runs fn inside a transaction that is always rolled back, so
// integration tests leave no rows behind. Tests are skipped unless
// DATABASE_URL points at a migrated database.
func withTestTx(t *testing.T, fn func(tx *sql.Tx)) {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test - DATABASE_URL environment variable required")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	defer func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing database connection: %v", err)
		}
	}()

	tx, err := db.Begin()
	require.NoError(t, err, "Failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("Error rolling back transaction: %v", err)
		}
	}()

	fn(tx)
}

func newTestSession(t *testing.T) *domain.StudySession {
	t.Helper()
	session, err := domain.NewStudySession("Integration Test Session", "some source text", "general")
	require.NoError(t, err)
	return session
}

func TestPostgresSessionStore_Integration(t *testing.T) {
	withTestTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		sessions := NewPostgresSessionStore(tx, testLogger())

		t.Run("create and get round trip", func(t *testing.T) {
			session := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, session))

			got, err := sessions.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, session.ID, got.ID)
			assert.Equal(t, session.Title, got.Title)
			assert.Equal(t, session.SourceText, got.SourceText)
			assert.Equal(t, domain.SessionStatusPending, got.Status)
			assert.Empty(t, got.Material)
		})

		t.Run("get missing session", func(t *testing.T) {
			_, err := sessions.GetByID(ctx, uuid.New())
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
		})

		t.Run("update status", func(t *testing.T) {
			session := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, session))

			require.NoError(t, sessions.UpdateStatus(ctx, session.ID, domain.SessionStatusProcessing))

			got, err := sessions.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.SessionStatusProcessing, got.Status)
		})

		t.Run("update status of missing session", func(t *testing.T) {
			err := sessions.UpdateStatus(ctx, uuid.New(), domain.SessionStatusFailed)
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
		})

		t.Run("set material marks completed", func(t *testing.T) {
			session := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, session))

			material := json.RawMessage(`{"title":"T","summary":"S","flashcards":[],"quiz":[]}`)
			require.NoError(t, sessions.SetMaterial(ctx, session.ID, material))

			got, err := sessions.GetByID(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.SessionStatusCompleted, got.Status)
			assert.JSONEq(t, string(material), string(got.Material))
		})

		t.Run("list newest first", func(t *testing.T) {
			first := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, first))
			second := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, second))

			listed, err := sessions.List(ctx, 100, 0)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(listed), 2)

			var firstIdx, secondIdx = -1, -1
			for i, s := range listed {
				if s.ID == first.ID {
					firstIdx = i
				}
				if s.ID == second.ID {
					secondIdx = i
				}
			}
			require.NotEqual(t, -1, firstIdx)
			require.NotEqual(t, -1, secondIdx)
			assert.Less(t, secondIdx, firstIdx, "newer session should come first")
		})

		t.Run("delete", func(t *testing.T) {
			session := newTestSession(t)
			require.NoError(t, sessions.Create(ctx, session))

			require.NoError(t, sessions.Delete(ctx, session.ID))
			_, err := sessions.GetByID(ctx, session.ID)
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
		})

		t.Run("delete missing session", func(t *testing.T) {
			err := sessions.Delete(ctx, uuid.New())
			assert.ErrorIs(t, err, store.ErrSessionNotFound)
		})

		t.Run("create invalid session", func(t *testing.T) {
			err := sessions.Create(ctx, &domain.StudySession{ID: uuid.New()})
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
		})
	})
}
