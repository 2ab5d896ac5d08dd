package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCategory indicates a label outside the question taxonomy.
	// A remote classifier returning one is treated as a primary failure.
	ErrInvalidCategory = errors.New("invalid question category")

	// ErrRecognizerUnavailable indicates the recognition service is not
	// configured or unreachable at startup. This aborts the whole run.
	ErrRecognizerUnavailable = errors.New("recognition service unavailable")

	// ErrClassifierUnavailable indicates the AI classifier is not configured.
	// Classification degrades to the rule-based fallback.
	ErrClassifierUnavailable = errors.New("AI classifier unavailable")

	// ErrInvalidResponse indicates a structurally invalid remote payload
	// (empty body, broken JSON, missing fields).
	ErrInvalidResponse = errors.New("invalid service response")

	// ErrStorageConflict indicates a uniqueness violation the upsert could
	// not resolve. This should never happen; it is a bug, not retryable.
	ErrStorageConflict = errors.New("storage conflict")
)

// RemoteCallError carries the HTTP status of a failed remote service call
// so the retry policy can distinguish rate limits from server faults.
type RemoteCallError struct {
	StatusCode int
	Message    string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote service error %d: %s", e.StatusCode, e.Message)
}

// FailureKind classifies why a remote call failed. The kind drives the
// retry policy: every kind except FailureFatal is retried with backoff.
type FailureKind string

const (
	// FailureTimeout means the attempt exceeded its hard deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureRateLimited means the service rejected the call for quota reasons.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureNetwork means the call never reached the service.
	FailureNetwork FailureKind = "network_error"
	// FailureServer means the service answered with a 5xx-class error.
	FailureServer FailureKind = "server_error"
	// FailureValidation means the response was structurally invalid.
	FailureValidation FailureKind = "validation_error"
	// FailureFatal means the input itself is unusable. Never retried.
	FailureFatal FailureKind = "fatal"
)

// Retryable reports whether the failure kind is worth another attempt.
func (k FailureKind) Retryable() bool {
	return k != FailureFatal
}
