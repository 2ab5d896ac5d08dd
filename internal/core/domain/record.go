package domain

import "time"

// Record is the durable outcome for one processed page. Records are
// deduplicated on (GroupPath, ItemKey): re-processing the same page
// replaces the previous row rather than inserting a second one.
type Record struct {
	// ID is the store-assigned unique identifier.
	ID string

	// GroupPath is the exam directory the page belongs to.
	GroupPath string

	// ItemKey is the page's filename stem within the group (e.g. "001").
	ItemKey string

	// Category is the assigned question category.
	Category QuestionType

	// Content is the recognised page text.
	Content string

	// Confidence is the classification confidence in [0,1].
	Confidence float64

	// Strategy records which classification tier produced the category.
	Strategy Strategy

	// RecordedAt is when the record was last written.
	RecordedAt time.Time
}

// CategoryCount is one row of a store summary: a category, how many
// records carry it, and its share of the total.
type CategoryCount struct {
	Category QuestionType
	Count    int
	Percent  float64
}

// StoreSummary is the aggregate view over all persisted records.
type StoreSummary struct {
	// Total is the number of records in the store.
	Total int

	// Distribution lists per-category counts, largest first.
	Distribution []CategoryCount
}
