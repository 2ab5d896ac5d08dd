// Package openai provides a page recognizer backed by an OpenAI-compatible
// vision chat-completions endpoint (api.openai.com, OpenRouter, Azure).
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Ensure Recognizer implements the interface.
var _ driven.Recognizer = (*Recognizer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

// recognitionPrompt asks the model for verbatim page text. The model must
// not answer the question; the classifier needs the original wording.
const recognitionPrompt = `Extract ALL text from this exam page image exactly as written.
Include the question text, every answer choice, and any passage excerpts.
Transcribe mathematical expressions in plain text (e.g. 3x + 2 = 11).
Do NOT solve or answer the question. Return ONLY the extracted text.`

// Config holds configuration for the OpenAI recognizer.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for OpenRouter or compatible APIs.
	BaseURL string

	// Model is the vision model to use (default: gpt-4o).
	Model string
}

// Recognizer extracts page text using an OpenAI-compatible vision endpoint.
// Deadlines come from the caller's context; the HTTP client carries none of
// its own so the per-attempt budget is authoritative.
type Recognizer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

// chatCompletionMsg is a chat message whose content is a part list, as
// required for image inputs.
type chatCompletionMsg struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is one element of a multimodal message.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

// imageURL carries an image as a base64 data URL.
type imageURL struct {
	URL string `json:"url"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// mimeTypes maps image extensions to their data URL media type.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// NewRecognizer creates a new OpenAI-backed recognizer.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrRecognizerUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Recognizer{
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Recognize extracts the text content of the image at path.
func (r *Recognizer) Recognize(ctx context.Context, path string) (string, error) {
	dataURL, err := encodeImage(path)
	if err != nil {
		return "", err
	}

	reqBody := chatCompletionRequest{
		Model: r.model,
		Messages: []chatCompletionMsg{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: recognitionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens:   4096,
		Temperature: 0,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &domain.RemoteCallError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidResponse, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", domain.ErrInvalidResponse)
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty recognition result", domain.ErrInvalidResponse)
	}

	return text, nil
}

// ModelName returns the name of the vision model being used.
func (r *Recognizer) ModelName() string {
	return r.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (r *Recognizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

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

// encodeImage reads the file at path and encodes it as a base64 data URL.
// Unreadable or unsupported files are fatal for the item, not retryable.
func encodeImage(path string) (string, error) {
	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading image: %v", domain.ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image file is empty", domain.ErrInvalidInput)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
