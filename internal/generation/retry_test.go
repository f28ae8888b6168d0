package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestExecutor returns an executor whose sleep records delays instead
// of suspending, plus the slice the delays land in.
func newTestExecutor(pool *KeyPool, cfg ExecutorConfig) (*Executor, *[]time.Duration) {
	ex := NewExecutor(pool, cfg, testLogger())
	delays := &[]time.Duration{}
	ex.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return ex, delays
}

func TestExecute_SucceedsAfterRetryableFailures(t *testing.T) {
	t.Parallel()

	retryableErr := &RemoteError{StatusCode: 503, Message: "overloaded"}

	// Succeeds on attempt m: the executor must make exactly m credential
	// draws and return the success value.
	for m := 1; m <= 4; m++ {
		pool := NewKeyPool([]string{"k1", "k2", "k3"})
		ex, delays := newTestExecutor(pool, ExecutorConfig{MaxAttempts: 5, BaseDelay: time.Second})

		var drawn []string
		calls := 0
		result, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
			drawn = append(drawn, credential)
			calls++
			if calls < m {
				return "", retryableErr
			}
			return "done", nil
		})

		require.NoError(t, err, "m=%d", m)
		assert.Equal(t, "done", result)
		assert.Len(t, drawn, m, "exactly m credential draws")
		assert.Len(t, *delays, m-1, "one delay per retried attempt")

		// Credentials rotate on every attempt, not only after failures.
		for i, credential := range drawn {
			assert.Equal(t, []string{"k1", "k2", "k3"}[i%3], credential)
		}
	}
}

func TestExecute_NonRetryableErrorPropagatesImmediately(t *testing.T) {
	t.Parallel()

	terminal := errors.New("invalid argument")
	pool := NewKeyPool([]string{"k1"})
	ex, delays := newTestExecutor(pool, ExecutorConfig{MaxAttempts: 5, BaseDelay: time.Second})

	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
		calls++
		return "", terminal
	})

	// Propagated verbatim after the first attempt, no delay incurred.
	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestExecute_ExhaustionPropagatesFinalErrorVerbatim(t *testing.T) {
	t.Parallel()

	retryableErr := &RemoteError{StatusCode: 429, Message: "rate limited"}
	pool := NewKeyPool([]string{"k1"})
	ex, delays := newTestExecutor(pool, ExecutorConfig{MaxAttempts: 3, BaseDelay: time.Second})

	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
		calls++
		return "", retryableErr
	})

	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 429, remoteErr.StatusCode)
	assert.Equal(t, 3, calls)
	// No trailing delay after the final attempt.
	assert.Len(t, *delays, 2)
}

func TestExecute_DelayBounds(t *testing.T) {
	t.Parallel()

	base := 2 * time.Second
	pool := NewKeyPool([]string{"k1"})
	ex, delays := newTestExecutor(pool, ExecutorConfig{MaxAttempts: 4, BaseDelay: base})

	_, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
		return "", &RemoteError{StatusCode: 503}
	})
	require.Error(t, err)
	require.Len(t, *delays, 3)

	// Delay after attempt i is in [base * 2^i, base * 2^i + 1s).
	for i, d := range *delays {
		lower := base << i
		assert.GreaterOrEqual(t, d, lower, "attempt %d", i)
		assert.Less(t, d, lower+time.Second, "attempt %d", i)
	}
}

func TestExecute_EmptyPoolStillAttempts(t *testing.T) {
	t.Parallel()

	pool := NewKeyPool(nil)
	ex, _ := newTestExecutor(pool, ExecutorConfig{MaxAttempts: 2, BaseDelay: time.Second})

	var drawn []string
	_, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
		drawn = append(drawn, credential)
		return "", errors.New("401 unauthorized")
	})

	// The empty credential reaches the operation so the remote side can
	// reject it with a clear error; the pool never raises locally.
	require.Error(t, err)
	assert.Equal(t, []string{""}, drawn)
}

func TestExecute_CancelledDuringDelay(t *testing.T) {
	t.Parallel()

	pool := NewKeyPool([]string{"k1"})
	ex := NewExecutor(pool, ExecutorConfig{MaxAttempts: 3, BaseDelay: time.Second}, testLogger())
	ex.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := Execute(context.Background(), ex, func(ctx context.Context, credential string) (string, error) {
		return "", &RemoteError{StatusCode: 503}
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"status_503", &RemoteError{StatusCode: 503}, true},
		{"status_429", &RemoteError{StatusCode: 429}, true},
		{"status_400", &RemoteError{StatusCode: 400, Message: "bad request"}, false},
		{"status_401", &RemoteError{StatusCode: 401, Message: "invalid key"}, false},
		{"overloaded_message", errors.New("the model is overloaded, try again"), true},
		{"unavailable_message", errors.New("rpc error: code = UNAVAILABLE"), true},
		{"fetch_failed_message", errors.New("fetch failed"), true},
		{"case_sensitive_match", errors.New("model Overloaded"), false},
		{"plain_error", errors.New("something else entirely"), false},
		{"wrapped_remote_error", &RemoteError{StatusCode: 503, Err: errors.New("upstream")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.retryable, Retryable(tt.err))
		})
	}
}
