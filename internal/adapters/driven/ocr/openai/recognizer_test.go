package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// writeImage creates a small fake page image on disk.
func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))
	return path
}

// completionBody builds a minimal chat-completions response.
func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestRecognizer(t *testing.T, handler http.HandlerFunc) *Recognizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec, err := NewRecognizer(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return rec
}

func TestNewRecognizer_RequiresAPIKey(t *testing.T) {
	_, err := NewRecognizer(Config{})
	assert.ErrorIs(t, err, domain.ErrRecognizerUnavailable)
}

func TestNewRecognizer_Defaults(t *testing.T) {
	rec, err := NewRecognizer(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, rec.ModelName())
}

func TestRecognizer_Recognize(t *testing.T) {
	var captured chatCompletionRequest
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionBody("  Which choice completes the text?  ")))
	})

	text, err := rec.Recognize(context.Background(), writeImage(t, "001.png"))
	require.NoError(t, err)
	assert.Equal(t, "Which choice completes the text?", text)

	// The request carries the prompt and a PNG data URL.
	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 2)
	assert.Equal(t, "text", captured.Messages[0].Content[0].Type)
	require.NotNil(t, captured.Messages[0].Content[1].ImageURL)
	assert.True(t, strings.HasPrefix(captured.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestRecognizer_ServerErrorIsRemoteCallError(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := rec.Recognize(context.Background(), writeImage(t, "001.png"))
	require.Error(t, err)

	var remote *domain.RemoteCallError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.StatusCode)
}

func TestRecognizer_EmptyResultIsInvalidResponse(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(completionBody("   ")))
	})

	_, err := rec.Recognize(context.Background(), writeImage(t, "001.png"))
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestRecognizer_NoChoicesIsInvalidResponse(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := rec.Recognize(context.Background(), writeImage(t, "001.png"))
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestRecognizer_BrokenJSONIsInvalidResponse(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":`))
	})

	_, err := rec.Recognize(context.Background(), writeImage(t, "001.png"))
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestRecognizer_UnsupportedExtensionIsFatal(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an unreadable input")
	})

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	_, err := rec.Recognize(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecognizer_MissingFileIsFatal(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for a missing file")
	})

	_, err := rec.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecognizer_Ping(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	})

	assert.NoError(t, rec.Ping(context.Background()))
}

func TestRecognizer_PingFailure(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorised", http.StatusUnauthorized)
	})

	err := rec.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrRecognizerUnavailable)
}
