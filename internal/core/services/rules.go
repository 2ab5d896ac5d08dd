package services

import (
	"regexp"
	"strings"

	"github.com/skyvense/SatExam/internal/core/domain"
)

// Scoring weights for the rule-based fallback. A regex hit is worth more
// than a bare keyword because it anchors phrase structure, and override
// rules outweigh both. The values are tunable; these mirror the ratios
// the classifier was calibrated with.
const (
	keywordWeight  = 1.0
	patternWeight  = 2.0
	overrideWeight = 3.0
)

// floorConfidence is reported when no rule fires at all: a "no signal"
// input still gets a deterministic category instead of an error.
const floorConfidence = 0.1

// rule is one declarative entry of the fallback scoring table: a category,
// the keywords and compiled patterns that vote for it.
type rule struct {
	category domain.QuestionType
	keywords []string
	patterns []*regexp.Regexp
}

// overrideRule is a label-specific predicate applied after the table.
// Overrides capture phrasings that identify a category almost uniquely
// (e.g. "most nearly means" for words-in-context).
type overrideRule struct {
	category domain.QuestionType
	applies  func(text string) bool
	weight   float64
}

var equationPattern = regexp.MustCompile(`[0-9]\s*[+\-*/=^]|\\frac|\\sqrt|[=<>]\s*[0-9]`)

// scoringTable votes for each taxonomy label. Order matches the canonical
// taxonomy ordering so iteration stays deterministic.
var scoringTable = []rule{
	{
		category: domain.ReadingEvidence,
		keywords: []string{"evidence", "best supports", "most strongly supports", "provides the best evidence"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`which.*evidence`),
			regexp.MustCompile(`best.*supports`),
			regexp.MustCompile(`most strongly supports`),
		},
	},
	{
		category: domain.ReadingWordsInContext,
		keywords: []string{"most nearly means", "as used", "closest in meaning", "best definition", "completes the text"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`most nearly means`),
			regexp.MustCompile(`as used.*means`),
			regexp.MustCompile(`closest in meaning`),
			regexp.MustCompile(`which choice completes the text`),
			regexp.MustCompile(`most logical and precise word`),
		},
	},
	{
		category: domain.ReadingCommandOfEvidence,
		keywords: []string{"author's purpose", "author's attitude", "tone", "main purpose"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`author.*purpose`),
			regexp.MustCompile(`author.*attitude`),
			regexp.MustCompile(`tone.*passage`),
		},
	},
	{
		category: domain.WritingExpressionOfIdeas,
		keywords: []string{"expression", "development", "organization", "most effective", "improve"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`expression.*ideas`),
			regexp.MustCompile(`most effective`),
			regexp.MustCompile(`development.*organization`),
		},
	},
	{
		category: domain.WritingGrammar,
		keywords: []string{"grammar", "punctuation", "sentence structure", "verb tense", "subject-verb agreement"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`punctuation`),
			regexp.MustCompile(`verb.*tense`),
			regexp.MustCompile(`subject.*verb`),
			regexp.MustCompile(`conventions of standard english`),
		},
	},
	{
		category: domain.WritingCommandOfEvidence,
		keywords: []string{"argument", "claim", "reasoning"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`evidence.*argument`),
			regexp.MustCompile(`support.*claim`),
		},
	},
	{
		category: domain.WritingWordsInContext,
		keywords: []string{"vocabulary", "word choice", "precise", "appropriate"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`word.*choice`),
			regexp.MustCompile(`precise.*word`),
		},
	},
	{
		category: domain.MathHeartOfAlgebra,
		keywords: []string{"equation", "inequality", "linear", "slope", "intercept", "system of equations"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`linear.*function`),
			regexp.MustCompile(`solve.*equation`),
			regexp.MustCompile(`slope`),
		},
	},
	{
		category: domain.MathProblemSolvingData,
		keywords: []string{"data", "table", "chart", "statistics", "mean", "median", "percent", "ratio", "probability"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`data.*table`),
			regexp.MustCompile(`mean.*median`),
			regexp.MustCompile(`scatter\s?plot`),
		},
	},
	{
		category: domain.MathPassportToAdvanced,
		keywords: []string{"polynomial", "quadratic", "exponential", "radical", "parabola"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`quadratic.*equation`),
			regexp.MustCompile(`exponential`),
			regexp.MustCompile(`polynomial`),
		},
	},
	{
		category: domain.MathAdditionalTopics,
		keywords: []string{"geometry", "trigonometry", "circle", "triangle", "volume", "area", "angle"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`circle.*area`),
			regexp.MustCompile(`triangle.*angle`),
			regexp.MustCompile(`trigonometr`),
		},
	},
	{
		category: domain.EssayAnalysis,
		keywords: []string{"essay", "persuasive", "rhetorical", "evaluate"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`essay.*analysis`),
			regexp.MustCompile(`evaluate.*argument`),
			regexp.MustCompile(`persuasive.*techniques`),
		},
	},
}

// overrideRules are evaluated in order after the scoring table.
var overrideRules = []overrideRule{
	{
		// "Which choice provides the best evidence" is the signature
		// phrasing of a reading evidence question.
		category: domain.ReadingEvidence,
		applies: func(text string) bool {
			return strings.Contains(text, "which choice") && strings.Contains(text, "evidence")
		},
		weight: overrideWeight,
	},
	{
		category: domain.ReadingWordsInContext,
		applies: func(text string) bool {
			return strings.Contains(text, "most nearly means") ||
				strings.Contains(text, "which choice completes the text")
		},
		weight: overrideWeight,
	},
	{
		// Equation-like content pushes the algebra label ahead of any
		// reading label that matched incidentally.
		category: domain.MathHeartOfAlgebra,
		applies: func(text string) bool {
			return equationPattern.MatchString(text)
		},
		weight: keywordWeight,
	},
	{
		category: domain.MathProblemSolvingData,
		applies: func(text string) bool {
			return strings.Contains(text, "graph") || strings.Contains(text, "table") ||
				strings.Contains(text, "chart")
		},
		weight: keywordWeight,
	},
	{
		// Essay prompts are long and explicitly ask for analysis.
		category: domain.EssayAnalysis,
		applies: func(text string) bool {
			return len(text) > 200 && strings.Contains(text, "analysis")
		},
		weight: patternWeight,
	},
}

// scoreText evaluates the declarative table and overrides against text
// and returns the per-category scores. Matching is case-insensitive.
func scoreText(text string) map[domain.QuestionType]float64 {
	lower := strings.ToLower(text)

	scores := make(map[domain.QuestionType]float64, len(scoringTable))
	for _, r := range scoringTable {
		var score float64
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				score += keywordWeight
			}
		}
		for _, p := range r.patterns {
			if p.MatchString(lower) {
				score += patternWeight
			}
		}
		scores[r.category] = score
	}

	for _, o := range overrideRules {
		if o.applies(lower) {
			scores[o.category] += o.weight
		}
	}

	return scores
}
