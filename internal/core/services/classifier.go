package services

import (
	"context"
	"time"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/logger"
)

// Engine assigns a question category to recognised text using a two-tier
// strategy: a remote AI classifier first, the local rule-based scorer when
// the remote tier fails, is disabled, or returns a label outside the
// taxonomy. The fallback path alone is a fully supported mode.
type Engine struct {
	primary  driven.Classifier
	disabled bool
	timeout  time.Duration
}

// NewEngine creates a classification engine. primary may be nil, in which
// case every call takes the fallback path. timeout bounds each primary
// call; zero means no deadline.
func NewEngine(primary driven.Classifier, disablePrimary bool, timeout time.Duration) *Engine {
	return &Engine{primary: primary, disabled: disablePrimary, timeout: timeout}
}

// Classify returns the category, confidence and strategy for text.
// It never returns an error: the fallback scorer always produces a
// deterministic result, even for text that matches nothing.
//
// The primary call runs under the engine's timeout so a stalled remote
// classifier degrades to the fallback scorer instead of blocking a
// worker indefinitely.
func (e *Engine) Classify(ctx context.Context, itemID, text string) domain.ClassificationResult {
	if e.primary != nil && !e.disabled {
		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		category, err := e.primary.Classify(callCtx, text)
		if err == nil {
			return domain.ClassificationResult{
				ItemID:     itemID,
				Category:   category,
				Confidence: domain.PrimaryConfidence,
				Strategy:   domain.StrategyPrimary,
			}
		}
		logger.Debug("Primary classification for %s failed, using fallback: %v", itemID, err)
	}

	return e.fallback(itemID, text)
}

// fallback runs the rule-based scorer. The winning label is the highest
// score; ties break to the earliest label in the canonical taxonomy
// ordering, so identical input always yields identical output.
func (e *Engine) fallback(itemID, text string) domain.ClassificationResult {
	scores := scoreText(text)

	var best domain.QuestionType
	var top, runnerUp float64
	for _, q := range domain.AllQuestionTypes {
		s := scores[q]
		if best == "" || s > top {
			if best != "" {
				runnerUp = top
			}
			best, top = q, s
		} else if s > runnerUp {
			runnerUp = s
		}
	}

	return domain.ClassificationResult{
		ItemID:     itemID,
		Category:   best,
		Confidence: fallbackConfidence(top, runnerUp),
		Scores:     scores,
		Strategy:   domain.StrategyFallback,
	}
}

// fallbackConfidence derives confidence from the dominance of the winning
// score over the runner-up, normalised into [0,1]. A zero top score means
// no rule fired; the floor keeps the output usable rather than erroring.
func fallbackConfidence(top, runnerUp float64) float64 {
	if top <= 0 {
		return floorConfidence
	}
	conf := (top - runnerUp) / top
	if conf < floorConfidence {
		return floorConfidence
	}
	if conf > 1 {
		return 1
	}
	return conf
}
