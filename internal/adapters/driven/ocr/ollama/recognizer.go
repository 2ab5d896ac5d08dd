// Package ollama provides a page recognizer backed by a local Ollama
// instance running a vision model such as llava.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Ensure Recognizer implements the interface.
var _ driven.Recognizer = (*Recognizer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llava"
)

// recognitionPrompt asks the model for verbatim page text.
const recognitionPrompt = `Extract ALL text from this exam page image exactly as written.
Include the question text, every answer choice, and any passage excerpts.
Do NOT solve or answer the question. Return ONLY the extracted text.`

// Config holds configuration for the Ollama recognizer.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the vision model to use (default: llava).
	Model string
}

// Recognizer extracts page text using Ollama's /api/generate endpoint.
// Deadlines come from the caller's context.
type Recognizer struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format. Images are
// carried as raw base64 strings, not data URLs.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewRecognizer creates a new Ollama-backed recognizer.
func NewRecognizer(cfg Config) *Recognizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Recognizer{
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Recognize extracts the text content of the image at path.
func (r *Recognizer) Recognize(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading image: %v", domain.ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image file is empty", domain.ErrInvalidInput)
	}

	reqBody := generateRequest{
		Model:   r.model,
		Prompt:  recognitionPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
		Stream:  false,
		Options: &options{Temperature: 0.1},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &domain.RemoteCallError{StatusCode: resp.StatusCode, Message: "failed to read response"}
		}
		return "", &domain.RemoteCallError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	text := strings.TrimSpace(genResp.Response)
	if text == "" {
		return "", fmt.Errorf("%w: empty recognition result", domain.ErrInvalidResponse)
	}

	return text, nil
}

// ModelName returns the name of the vision model being used.
func (r *Recognizer) ModelName() string {
	return r.model
}

// Ping validates the Ollama instance is reachable.
func (r *Recognizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRecognizerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: API returned status %d", domain.ErrRecognizerUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (r *Recognizer) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
