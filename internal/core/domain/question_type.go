package domain

import (
	"fmt"
	"strings"
)

// QuestionType is a member of the fixed SAT question taxonomy.
// It is a closed set: values outside AllQuestionTypes are rejected
// at the parse boundary rather than stored.
type QuestionType string

const (
	// Reading categories.
	ReadingEvidence          QuestionType = "reading-evidence"
	ReadingWordsInContext    QuestionType = "reading-words-in-context"
	ReadingCommandOfEvidence QuestionType = "reading-command-of-evidence"

	// Writing & Language categories.
	WritingExpressionOfIdeas QuestionType = "writing-lang-expression-of-ideas"
	WritingGrammar           QuestionType = "writing-lang-grammar"
	WritingCommandOfEvidence QuestionType = "writing-lang-command-of-evidence"
	WritingWordsInContext    QuestionType = "writing-lang-words-in-context"

	// Math categories.
	MathHeartOfAlgebra     QuestionType = "math-heart-of-algebra"
	MathProblemSolvingData QuestionType = "math-problem-solving-data-analysis"
	MathPassportToAdvanced QuestionType = "math-passport-to-advanced-math"
	MathAdditionalTopics   QuestionType = "math-additional-topics"

	// Essay category.
	EssayAnalysis QuestionType = "essay-analysis"
)

// AllQuestionTypes lists the taxonomy in its canonical priority order:
// Reading before Writing before Math before Essay. Tie-breaking in the
// fallback scorer picks the earliest entry, so this order is part of the
// engine's deterministic contract.
var AllQuestionTypes = []QuestionType{
	ReadingEvidence,
	ReadingWordsInContext,
	ReadingCommandOfEvidence,
	WritingExpressionOfIdeas,
	WritingGrammar,
	WritingCommandOfEvidence,
	WritingWordsInContext,
	MathHeartOfAlgebra,
	MathProblemSolvingData,
	MathPassportToAdvanced,
	MathAdditionalTopics,
	EssayAnalysis,
}

// descriptions maps each category to a short human-readable label.
var descriptions = map[QuestionType]string{
	ReadingEvidence:          "Reading: evidence support",
	ReadingWordsInContext:    "Reading: words in context",
	ReadingCommandOfEvidence: "Reading: command of evidence",
	WritingExpressionOfIdeas: "Writing: expression of ideas",
	WritingGrammar:           "Writing: grammar and usage",
	WritingCommandOfEvidence: "Writing: command of evidence",
	WritingWordsInContext:    "Writing: words in context",
	MathHeartOfAlgebra:       "Math: heart of algebra",
	MathProblemSolvingData:   "Math: problem solving and data analysis",
	MathPassportToAdvanced:   "Math: passport to advanced math",
	MathAdditionalTopics:     "Math: additional topics",
	EssayAnalysis:            "Essay: analysis",
}

// Valid reports whether q is a member of the taxonomy.
func (q QuestionType) Valid() bool {
	_, ok := descriptions[q]
	return ok
}

// Description returns the human-readable label for the category.
func (q QuestionType) Description() string {
	if d, ok := descriptions[q]; ok {
		return d
	}
	return string(q)
}

// IsMath reports whether the category belongs to the math section.
func (q QuestionType) IsMath() bool {
	return strings.HasPrefix(string(q), "math-")
}

// Priority returns the category's position in the canonical ordering.
// Unknown categories sort last.
func (q QuestionType) Priority() int {
	for i, t := range AllQuestionTypes {
		if t == q {
			return i
		}
	}
	return len(AllQuestionTypes)
}

// ParseQuestionType validates a raw label against the taxonomy.
// Labels are compared case-insensitively after trimming; anything outside
// the closed set yields ErrInvalidCategory so callers can treat a
// misbehaving remote classifier as a validation failure.
func ParseQuestionType(raw string) (QuestionType, error) {
	q := QuestionType(strings.ToLower(strings.TrimSpace(raw)))
	if !q.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return q, nil
}
