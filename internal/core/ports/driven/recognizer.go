package driven

import "context"

// Recognizer converts a single exam page image into text through a remote
// content-recognition service. One call per attempt; retry policy lives in
// the pipeline, not the adapter.
//
// Implementations may include:
//   - OpenAI-compatible vision endpoints (GPT-4o, OpenRouter)
//   - Ollama (local vision models such as llava)
type Recognizer interface {
	// Recognize extracts the text content of the image at path.
	// The context carries the per-attempt deadline.
	Recognize(ctx context.Context, path string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Used at startup so an unreachable service aborts the run early.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
