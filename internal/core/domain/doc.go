// Package domain defines the core business entities for SatExam.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - WorkItem: A single scanned exam page awaiting processing
//   - RecognitionResult: Text recovered from a page by the OCR service
//   - ClassificationResult: The question category assigned to a page
//   - Record: The durable, deduplicated outcome persisted per page
//   - QuestionType: The closed taxonomy of SAT question categories
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
