package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllQuestionTypes_ClosedSet(t *testing.T) {
	assert.Len(t, AllQuestionTypes, 12)

	seen := make(map[QuestionType]bool)
	for _, qt := range AllQuestionTypes {
		assert.False(t, seen[qt], "duplicate taxonomy entry %s", qt)
		seen[qt] = true
		assert.True(t, qt.Valid())
		assert.NotEmpty(t, qt.Description())
	}
}

func TestParseQuestionType(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    QuestionType
		wantErr bool
	}{
		{"exact", "math-heart-of-algebra", MathHeartOfAlgebra, false},
		{"uppercase", "MATH-HEART-OF-ALGEBRA", MathHeartOfAlgebra, false},
		{"padded", "  reading-evidence \n", ReadingEvidence, false},
		{"essay", "essay-analysis", EssayAnalysis, false},
		{"unknown", "algebra", "", true},
		{"empty", "", "", true},
		{"close but wrong", "math-algebra", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestionType(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionType_IsMath(t *testing.T) {
	assert.True(t, MathHeartOfAlgebra.IsMath())
	assert.True(t, MathProblemSolvingData.IsMath())
	assert.True(t, MathPassportToAdvanced.IsMath())
	assert.True(t, MathAdditionalTopics.IsMath())
	assert.False(t, ReadingEvidence.IsMath())
	assert.False(t, EssayAnalysis.IsMath())
}

func TestQuestionType_Priority(t *testing.T) {
	// Reading sorts before writing, writing before math, essay last.
	assert.Less(t, ReadingEvidence.Priority(), WritingGrammar.Priority())
	assert.Less(t, WritingGrammar.Priority(), MathHeartOfAlgebra.Priority())
	assert.Less(t, MathAdditionalTopics.Priority(), EssayAnalysis.Priority())

	// Unknown categories sort after every real one.
	assert.Equal(t, len(AllQuestionTypes), QuestionType("bogus").Priority())
}

func TestQuestionType_DescriptionFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "bogus", QuestionType("bogus").Description())
}
