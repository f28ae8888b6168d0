package task

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store for runner tests.
type memoryStore struct {
	mu       sync.Mutex
	saved    []Task
	statuses map[uuid.UUID]Status
	pending  []Task
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{statuses: make(map[uuid.UUID]Status)}
}

func (s *memoryStore) SaveTask(ctx context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, t)
	s.statuses[t.ID()] = StatusPending
	return nil
}

func (s *memoryStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status Status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	return nil
}

func (s *memoryStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, nil
}

func (s *memoryStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	return nil, nil
}

func (s *memoryStore) WithTx(tx *sql.Tx) Store { return s }

func (s *memoryStore) statusOf(id uuid.UUID) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

// fakeTask is a controllable Task implementation.
type fakeTask struct {
	id       uuid.UUID
	executed chan struct{}
	err      error
}

func newFakeTask(err error) *fakeTask {
	return &fakeTask{id: uuid.New(), executed: make(chan struct{}), err: err}
}

func (t *fakeTask) ID() uuid.UUID   { return t.id }
func (t *fakeTask) Type() string    { return "fake" }
func (t *fakeTask) Payload() []byte { return nil }
func (t *fakeTask) Status() Status  { return StatusPending }

func (t *fakeTask) Execute(ctx context.Context) error {
	close(t.executed)
	return t.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitExecuted(t *testing.T, ft *fakeTask) {
	t.Helper()
	select {
	case <-ft.executed:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed in time")
	}
}

// waitStatus polls until the store reports the wanted status.
func waitStatus(t *testing.T, store *memoryStore, id uuid.UUID, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.statusOf(id) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task never reached status %q (last: %q)", want, store.statusOf(id))
}

func TestRunner_ExecutesSubmittedTask(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	runner := NewRunner(store, RunnerConfig{WorkerCount: 1, QueueSize: 10}, testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	ft := newFakeTask(nil)
	require.NoError(t, runner.Submit(context.Background(), ft))

	waitExecuted(t, ft)
	waitStatus(t, store, ft.id, StatusCompleted)
}

func TestRunner_MarksFailedTask(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	runner := NewRunner(store, RunnerConfig{WorkerCount: 1, QueueSize: 10}, testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	ft := newFakeTask(errors.New("boom"))
	require.NoError(t, runner.Submit(context.Background(), ft))

	waitExecuted(t, ft)
	waitStatus(t, store, ft.id, StatusFailed)
}

func TestRunner_SubmitFailsWhenSaveFails(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.saveErr = errors.New("db down")
	runner := NewRunner(store, RunnerConfig{WorkerCount: 1, QueueSize: 10}, testLogger())

	err := runner.Submit(context.Background(), newFakeTask(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save task")
}

func TestRunner_RecoversPendingTasks(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ft := newFakeTask(nil)
	store.pending = []Task{ft}

	runner := NewRunner(store, RunnerConfig{WorkerCount: 1, QueueSize: 10}, testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitExecuted(t, ft)
}
