package domain

import (
	"fmt"
	"time"
)

// OCRBackend identifies the recognition service implementation.
type OCRBackend string

const (
	// OCRBackendOpenAI uses an OpenAI-compatible vision endpoint.
	OCRBackendOpenAI OCRBackend = "openai"

	// OCRBackendOllama uses a local Ollama instance.
	OCRBackendOllama OCRBackend = "ollama"
)

// IsValid returns true if the backend is recognised.
func (b OCRBackend) IsValid() bool {
	switch b {
	case OCRBackendOpenAI, OCRBackendOllama:
		return true
	default:
		return false
	}
}

// Default configuration values.
const (
	DefaultMaxWorkers        = 10
	DefaultMaxRetries        = 3
	DefaultTimeoutSeconds    = 60
	DefaultBackoffFactor     = 2.0
	DefaultRequestsPerSecond = 1.0
	DefaultBurstSize         = 2
	DefaultMinItemCount      = 1
)

// Config carries every tunable the pipeline recognises. It is built once
// at startup (file + flags + environment) and passed explicitly to each
// component constructor; nothing reads configuration ambiently.
type Config struct {
	// Root is the directory tree to enumerate.
	Root string

	// DBPath is the SQLite database location.
	DBPath string

	// MaxWorkers bounds simultaneously in-flight items (default 10).
	MaxWorkers int

	// MaxRetries bounds attempts per remote call (default 3).
	MaxRetries int

	// TimeoutSeconds is the hard deadline per attempt and the backoff
	// base unit (default 60).
	TimeoutSeconds int

	// BackoffFactor is the exponential backoff multiplier (default 2.0).
	BackoffFactor float64

	// RequestsPerSecond paces remote calls across all workers (default 1.0).
	RequestsPerSecond float64

	// BurstSize is the rate limiter's burst allowance (default 2).
	BurstSize int

	// ForceReprocess bypasses the completion gate.
	ForceReprocess bool

	// DisableAIClassifier forces the rule-based fallback for every item.
	DisableAIClassifier bool

	// MaxFiles caps how many items are dispatched. Zero means no cap.
	MaxFiles int

	// StartFrom skips the first N items of the ordered sequence.
	StartFrom int

	// MinItemCount is the smallest group that is still processed (default 1).
	MinItemCount int

	// OCR selects and configures the recognition backend.
	OCR OCRConfig

	// Classifier configures the remote AI classification call.
	Classifier ClassifierConfig
}

// OCRConfig configures the recognition service.
type OCRConfig struct {
	// Backend selects the implementation (default openai).
	Backend OCRBackend

	// Model is the vision model name.
	Model string

	// BaseURL overrides the service endpoint.
	BaseURL string

	// APIKey authenticates cloud backends. Usually sourced from
	// OPENAI_API_KEY or OPENROUTER_API_KEY.
	APIKey string
}

// ClassifierConfig configures the primary classification call.
type ClassifierConfig struct {
	// Model is the chat model used for classification.
	Model string

	// BaseURL overrides the service endpoint.
	BaseURL string

	// APIKey authenticates the classification endpoint.
	APIKey string
}

// DefaultConfig returns a Config populated with every default.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:        DefaultMaxWorkers,
		MaxRetries:        DefaultMaxRetries,
		TimeoutSeconds:    DefaultTimeoutSeconds,
		BackoffFactor:     DefaultBackoffFactor,
		RequestsPerSecond: DefaultRequestsPerSecond,
		BurstSize:         DefaultBurstSize,
		MinItemCount:      DefaultMinItemCount,
		OCR:               OCRConfig{Backend: OCRBackendOpenAI},
	}
}

// Timeout returns the per-attempt deadline as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be at least 1", ErrInvalidInput)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", ErrInvalidInput)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: timeout_seconds must be at least 1", ErrInvalidInput)
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("%w: backoff_factor must be at least 1", ErrInvalidInput)
	}
	if c.MaxFiles < 0 || c.StartFrom < 0 {
		return fmt.Errorf("%w: max_files and start_from must not be negative", ErrInvalidInput)
	}
	if c.MinItemCount < 1 {
		return fmt.Errorf("%w: min_item_count must be at least 1", ErrInvalidInput)
	}
	if !c.OCR.Backend.IsValid() {
		return fmt.Errorf("%w: unknown ocr backend %q", ErrInvalidInput, c.OCR.Backend)
	}
	return nil
}
