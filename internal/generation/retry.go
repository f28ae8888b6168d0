package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Default retry parameters, used when the configured values are missing
// or out of range.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second

	// maxJitter bounds the random spread added to every backoff delay.
	// Jitter keeps simultaneous failures from retrying in lockstep.
	maxJitter = time.Second
)

// retryableMarkers are provider error-message fragments that indicate a
// transient condition worth retrying. Matching is case-sensitive; these are
// the exact strings the upstream services emit.
var retryableMarkers = []string{"overloaded", "UNAVAILABLE", "fetch failed"}

// ExecutorConfig holds the retry knobs for an Executor.
type ExecutorConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; subsequent delays
	// double it per attempt, plus jitter.
	BaseDelay time.Duration
}

// Executor runs an operation with bounded retries, exponential backoff
// with jitter, and credential rotation. A fresh credential is drawn from
// the pool on every attempt, not only after failures, so load spreads
// across keys even for calls that succeed immediately.
//
// Attempts within one invocation are strictly sequential; concurrency
// across independent invocations is the caller's choice.
type Executor struct {
	pool        *KeyPool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	// sleep is the suspension primitive, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor over the given credential pool. Zero or
// negative config values fall back to the defaults.
func NewExecutor(pool *KeyPool, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.MaxAttempts < 1 {
		logger.Warn("invalid max attempts, using default",
			"configured", cfg.MaxAttempts,
			"default", DefaultMaxAttempts)
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	if cfg.BaseDelay <= 0 {
		logger.Warn("invalid base delay, using default",
			"configured", cfg.BaseDelay,
			"default", DefaultBaseDelay)
		cfg.BaseDelay = DefaultBaseDelay
	}

	return &Executor{
		pool:        pool,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      logger,
		sleep:       sleepWithContext,
	}
}

// Operation is one unit of retryable work. It receives the credential
// drawn for this attempt and returns a result or an error.
type Operation[T any] func(ctx context.Context, credential string) (T, error)

// Execute runs op under the executor's retry policy and returns its result.
//
// Failures classified as retryable (see Retryable) are retried after an
// exponential delay with jitter: baseDelay * 2^attempt + [0, 1s). Any other
// failure, and the failure of the final attempt, propagates to the caller
// verbatim: the executor never wraps or reclassifies the error beyond the
// retry decision.
func Execute[T any](ctx context.Context, ex *Executor, op Operation[T]) (T, error) {
	var zero T
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt < ex.maxAttempts; attempt++ {
		credential := ex.pool.Next()

		result, err := op(ctx, credential)
		if err == nil {
			if attempt > 0 {
				ex.logger.Info("generation call succeeded after retry",
					"attempt", attempt+1)
			}
			return result, nil
		}

		if !Retryable(err) {
			ex.logger.Warn("non-retryable generation error",
				"attempt", attempt+1,
				"error", err)
			return zero, err
		}

		if attempt == ex.maxAttempts-1 {
			ex.logger.Warn("generation retries exhausted",
				"attempts", ex.maxAttempts,
				"error", err)
			return zero, err
		}

		delay := ex.baseDelay<<attempt + time.Duration(rng.Int63n(int64(maxJitter)))
		ex.logger.Info("retrying generation call after delay",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		if serr := ex.sleep(ctx, delay); serr != nil {
			return zero, fmt.Errorf("retry delay interrupted: %w", serr)
		}
	}

	// Unreachable: the final attempt returns from inside the loop.
	return zero, fmt.Errorf("exhausted %d attempts", ex.maxAttempts)
}

// Retryable reports whether err indicates a transient remote condition:
// an HTTP 503 or 429 from the provider, or an error message carrying one
// of the known transient markers ("overloaded", "UNAVAILABLE",
// "fetch failed"). Everything else is terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		switch remoteErr.StatusCode {
		case http.StatusServiceUnavailable, http.StatusTooManyRequests:
			return true
		}
	}

	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

// sleepWithContext suspends for d without blocking unrelated work, waking
// early if the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
