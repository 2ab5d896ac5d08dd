package domain

import "time"

// WorkItem represents a single exam page file discovered by the enumerator.
// Identity is the normalised source path; items are immutable once created.
type WorkItem struct {
	// ID is the stable, path-derived key for the item.
	ID string

	// SourcePath is the absolute path of the page image (or text) file.
	SourcePath string

	// GroupPath is the directory the item belongs to. One directory
	// corresponds to one exam paper.
	GroupPath string

	// Key is the item's filename stem within the group (e.g. "001").
	Key string

	// Sequence is the numeric prefix parsed from the filename. It defines
	// processing order within a group: 2 sorts before 10.
	Sequence int
}

// RecognitionResult is the text recovered for one WorkItem by the
// recognition service. It lives for the duration of a single pipeline run;
// the sidecar cache file is its durable form.
type RecognitionResult struct {
	// ItemID matches WorkItem.ID.
	ItemID string

	// Text is the recognised page content.
	Text string

	// ObtainedAt is when the remote call completed.
	ObtainedAt time.Time
}

// Strategy identifies which classification tier produced a result.
type Strategy string

const (
	// StrategyPrimary means the remote AI classifier assigned the category.
	StrategyPrimary Strategy = "primary"
	// StrategyFallback means the local rule-based scorer assigned it.
	StrategyFallback Strategy = "fallback"
)

// PrimaryConfidence is the fixed confidence reported for primary
// classifications. The remote model is trusted but not treated as certain.
const PrimaryConfidence = 0.95

// ClassificationResult is the category assigned to one item's text.
type ClassificationResult struct {
	// ItemID matches WorkItem.ID.
	ItemID string

	// Category is a member of the fixed question taxonomy.
	Category QuestionType

	// Confidence is in [0,1]. Primary results carry PrimaryConfidence;
	// fallback results derive it from the winning score's margin.
	Confidence float64

	// Scores holds the per-label fallback scores. Empty for primary results.
	Scores map[QuestionType]float64

	// Strategy records which tier produced the result.
	Strategy Strategy
}
