package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// scriptedRecognizer returns the queued errors in order, then succeeds.
type scriptedRecognizer struct {
	errs     []error
	attempts int
	text     string
}

func (r *scriptedRecognizer) Recognize(_ context.Context, _ string) (string, error) {
	r.attempts++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return "", err
	}
	if r.text == "" {
		return "recognised text", nil
	}
	return r.text, nil
}

func (r *scriptedRecognizer) ModelName() string          { return "scripted" }
func (r *scriptedRecognizer) Ping(context.Context) error { return nil }
func (r *scriptedRecognizer) Close() error               { return nil }

// testInvoker builds an invoker with instant sleeps and an unthrottled
// limiter so tests never wait.
func testInvoker(rec *scriptedRecognizer, maxRetries int) (*Invoker, *[]time.Duration) {
	cfg := domain.DefaultConfig()
	cfg.MaxRetries = maxRetries
	cfg.RequestsPerSecond = 1000
	cfg.BurstSize = 1000

	v := NewInvoker(rec, cfg)
	var slept []time.Duration
	v.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return v, &slept
}

func testItem() domain.WorkItem {
	return domain.WorkItem{
		ID:         "/exams/paper-1/001.png",
		SourcePath: "/exams/paper-1/001.png",
		GroupPath:  "/exams/paper-1",
		Key:        "001",
		Sequence:   1,
	}
}

func TestInvoker_SucceedsFirstAttempt(t *testing.T) {
	rec := &scriptedRecognizer{}
	v, slept := testInvoker(rec, 3)

	result, err := v.Invoke(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, "recognised text", result.Text)
	assert.Equal(t, "/exams/paper-1/001.png", result.ItemID)
	assert.Equal(t, 1, rec.attempts)
	assert.Empty(t, *slept)
}

func TestInvoker_RetriesThenSucceeds(t *testing.T) {
	rec := &scriptedRecognizer{errs: []error{
		&domain.RemoteCallError{StatusCode: 503, Message: "overloaded"},
		&domain.RemoteCallError{StatusCode: 429, Message: "slow down"},
	}}
	v, slept := testInvoker(rec, 3)

	result, err := v.Invoke(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, "recognised text", result.Text)
	assert.Equal(t, 3, rec.attempts)
	assert.Len(t, *slept, 2)
}

func TestInvoker_ExhaustsRetries(t *testing.T) {
	serverErr := &domain.RemoteCallError{StatusCode: 500, Message: "boom"}
	rec := &scriptedRecognizer{errs: []error{serverErr, serverErr, serverErr}}
	v, slept := testInvoker(rec, 3)

	_, err := v.Invoke(context.Background(), testItem())
	require.Error(t, err)

	var failure *ItemFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.FailureServer, failure.Kind)
	assert.Equal(t, 3, failure.Attempts)
	assert.Equal(t, 3, rec.attempts)
	// No backoff after the final attempt.
	assert.Len(t, *slept, 2)
}

func TestInvoker_FatalFailureNeverRetries(t *testing.T) {
	rec := &scriptedRecognizer{errs: []error{
		fmt.Errorf("%w: unreadable image", domain.ErrInvalidInput),
	}}
	v, slept := testInvoker(rec, 3)

	_, err := v.Invoke(context.Background(), testItem())
	require.Error(t, err)

	var failure *ItemFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, domain.FailureFatal, failure.Kind)
	assert.Equal(t, 1, failure.Attempts)
	assert.Equal(t, 1, rec.attempts)
	assert.Empty(t, *slept)
}

func TestInvoker_BackoffGrowsExponentially(t *testing.T) {
	serverErr := &domain.RemoteCallError{StatusCode: 502, Message: "bad gateway"}
	rec := &scriptedRecognizer{errs: []error{serverErr, serverErr, serverErr, serverErr}}
	v, slept := testInvoker(rec, 4)

	_, err := v.Invoke(context.Background(), testItem())
	require.Error(t, err)

	// Base is the per-attempt timeout (60s default) scaled by factor^(n-1).
	require.Len(t, *slept, 3)
	assert.Equal(t, 60*time.Second, (*slept)[0])
	assert.Equal(t, 120*time.Second, (*slept)[1])
	assert.Equal(t, 240*time.Second, (*slept)[2])
}

func TestInvoker_ValidationFailureIsRetried(t *testing.T) {
	rec := &scriptedRecognizer{errs: []error{
		fmt.Errorf("%w: empty recognition result", domain.ErrInvalidResponse),
	}}
	v, _ := testInvoker(rec, 3)

	result, err := v.Invoke(context.Background(), testItem())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.attempts)
	assert.NotEmpty(t, result.Text)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.FailureKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, domain.FailureTimeout},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), domain.FailureTimeout},
		{"invalid response", domain.ErrInvalidResponse, domain.FailureValidation},
		{"invalid category", domain.ErrInvalidCategory, domain.FailureValidation},
		{"invalid input", domain.ErrInvalidInput, domain.FailureFatal},
		{"http 429", &domain.RemoteCallError{StatusCode: 429}, domain.FailureRateLimited},
		{"http 500", &domain.RemoteCallError{StatusCode: 500}, domain.FailureServer},
		{"http 503", &domain.RemoteCallError{StatusCode: 503}, domain.FailureServer},
		{"http 408", &domain.RemoteCallError{StatusCode: 408}, domain.FailureTimeout},
		{"http 401", &domain.RemoteCallError{StatusCode: 401}, domain.FailureFatal},
		{"unknown error", errors.New("connection reset"), domain.FailureNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

func TestFailureKind_Retryable(t *testing.T) {
	retryable := []domain.FailureKind{
		domain.FailureTimeout,
		domain.FailureRateLimited,
		domain.FailureNetwork,
		domain.FailureServer,
		domain.FailureValidation,
	}
	for _, kind := range retryable {
		assert.True(t, kind.Retryable(), "kind %s", kind)
	}
	assert.False(t, domain.FailureFatal.Retryable())
}
