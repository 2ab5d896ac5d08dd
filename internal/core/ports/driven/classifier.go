package driven

import (
	"context"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// Classifier assigns a question category to recognised text using a remote
// AI service. This is the primary tier of the two-tier classification
// strategy; the rule-based fallback lives in core and needs no port.
//
// Implementations must validate the returned label against the taxonomy
// and surface anything else as domain.ErrInvalidCategory, so the engine
// can fall through to the local scorer.
type Classifier interface {
	// Classify returns the category for the given question text.
	Classify(ctx context.Context, text string) (domain.QuestionType, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
