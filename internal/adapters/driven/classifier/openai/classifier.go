// Package openai provides the primary question classifier backed by an
// OpenAI-compatible chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// classificationPromptTemplate enumerates the taxonomy and demands a bare
// label. Anything beyond the label is stripped; anything outside the set
// fails validation and hands the item to the rule-based fallback.
const classificationPromptTemplate = `You are classifying SAT exam questions. Assign exactly one category to the question below.

Valid categories:
%s

Respond with ONLY the category identifier (e.g. "math-heart-of-algebra"). No explanation.

Question:
%s`

// Config holds configuration for the OpenAI classifier.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string
}

// Classifier assigns taxonomy labels using a chat-completions endpoint.
type Classifier struct {
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

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
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
	} `json:"error,omitempty"`
}

// NewClassifier creates a new OpenAI-backed classifier.
func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrClassifierUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Classifier{
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Classify returns the category for the given question text.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.QuestionType, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty question text", domain.ErrInvalidInput)
	}

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatCompletionMsg{
			{Role: "user", Content: fmt.Sprintf(classificationPromptTemplate, taxonomyList(), text)},
		},
		MaxTokens:   30,
		Temperature: 0,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
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

	// Validate against the closed taxonomy; models occasionally wrap the
	// label in quotes or trailing punctuation.
	label := strings.Trim(strings.TrimSpace(chatResp.Choices[0].Message.Content), `"'.`)
	return domain.ParseQuestionType(label)
}

// ModelName returns the name of the model being used.
func (c *Classifier) ModelName() string {
	return c.model
}

// Close releases resources.
func (c *Classifier) Close() error {
	return nil
}

// taxonomyList renders the taxonomy as prompt lines with descriptions.
func taxonomyList() string {
	var b strings.Builder
	for _, qt := range domain.AllQuestionTypes {
		fmt.Fprintf(&b, "- %s (%s)\n", qt, qt.Description())
	}
	return strings.TrimRight(b.String(), "\n")
}
