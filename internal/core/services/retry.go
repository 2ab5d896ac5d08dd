package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/logger"
)

// ItemFailure reports that one item exhausted its retry budget.
// It carries the last failure kind and how many attempts were made.
type ItemFailure struct {
	Kind     domain.FailureKind
	Attempts int
	Err      error
}

func (f *ItemFailure) Error() string {
	return fmt.Sprintf("failed after %d attempt(s) (%s): %v", f.Attempts, f.Kind, f.Err)
}

func (f *ItemFailure) Unwrap() error { return f.Err }

// ClassifyFailure maps an error from a remote call to its FailureKind.
// Classification looks at the error content, not just transport status:
// a structurally broken payload is a validation failure even though the
// HTTP exchange succeeded.
func ClassifyFailure(err error) domain.FailureKind {
	switch {
	case err == nil:
		return domain.FailureFatal // should not happen

	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout

	case errors.Is(err, domain.ErrInvalidResponse),
		errors.Is(err, domain.ErrInvalidCategory):
		return domain.FailureValidation

	case errors.Is(err, domain.ErrInvalidInput):
		return domain.FailureFatal
	}

	var remote *domain.RemoteCallError
	if errors.As(err, &remote) {
		switch {
		case remote.StatusCode == 429:
			return domain.FailureRateLimited
		case remote.StatusCode >= 500:
			return domain.FailureServer
		case remote.StatusCode == 408:
			return domain.FailureTimeout
		default:
			// 4xx other than throttling means the request itself is bad.
			return domain.FailureFatal
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.FailureTimeout
		}
		return domain.FailureNetwork
	}

	// Unrecognised errors get the benefit of the doubt.
	return domain.FailureNetwork
}

// Invoker wraps a Recognizer with bounded, classified retries.
//
// Each attempt runs under its own hard deadline; the backoff before
// attempt n is base * factor^(n-1) and is never applied after the final
// attempt. A shared rate limiter paces calls across all workers.
type Invoker struct {
	recognizer driven.Recognizer
	limiter    *rate.Limiter
	maxRetries int
	timeout    time.Duration
	factor     float64

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates a retry invoker from the run configuration.
func NewInvoker(recognizer driven.Recognizer, cfg domain.Config) *Invoker {
	return &Invoker{
		recognizer: recognizer,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout(),
		factor:     cfg.BackoffFactor,
		sleep:      sleepCtx,
	}
}

// pingTimeout bounds the startup reachability probe.
const pingTimeout = 10 * time.Second

// Ping checks that the recognition service is reachable. Called once at
// the start of a run so an unreachable service fails the run immediately
// instead of burning the retry budget of every item.
func (v *Invoker) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return v.recognizer.Ping(pingCtx)
}

// Invoke performs the remote recognition call for one item, retrying
// every failure kind except Fatal. On exhaustion it returns an
// *ItemFailure carrying the last kind.
//
// The per-attempt context is detached from the run context's cancellation
// so an interrupted run lets in-flight calls finish naturally instead of
// tearing them down mid-write.
func (v *Invoker) Invoke(ctx context.Context, item domain.WorkItem) (*domain.RecognitionResult, error) {
	var lastErr error
	var lastKind domain.FailureKind

	for attempt := 1; attempt <= v.maxRetries; attempt++ {
		if err := v.limiter.Wait(ctx); err != nil {
			return nil, &ItemFailure{Kind: domain.FailureTimeout, Attempts: attempt, Err: err}
		}

		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
		text, err := v.recognizer.Recognize(attemptCtx, item.SourcePath)
		cancel()

		if err == nil {
			return &domain.RecognitionResult{
				ItemID:     item.ID,
				Text:       text,
				ObtainedAt: time.Now().UTC(),
			}, nil
		}

		lastErr = err
		lastKind = ClassifyFailure(err)
		logger.Debug("Attempt %d/%d for %s failed (%s): %v",
			attempt, v.maxRetries, item.ID, lastKind, err)

		if !lastKind.Retryable() {
			return nil, &ItemFailure{Kind: lastKind, Attempts: attempt, Err: err}
		}
		if attempt == v.maxRetries {
			break
		}

		if err := v.sleep(ctx, v.backoff(attempt)); err != nil {
			return nil, &ItemFailure{Kind: lastKind, Attempts: attempt, Err: lastErr}
		}
	}

	return nil, &ItemFailure{Kind: lastKind, Attempts: v.maxRetries, Err: lastErr}
}

// backoff returns the delay before the retry following attempt n.
func (v *Invoker) backoff(attempt int) time.Duration {
	return time.Duration(float64(v.timeout) * math.Pow(v.factor, float64(attempt-1)))
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
