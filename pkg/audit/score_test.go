package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSubmission_WeightedMean(t *testing.T) {
	catalog := map[string]QuestionDefinition{
		"a": {ID: "a", Category: "safety", Weight: 1.0, IsActive: true, ApplicableTiers: []string{"tier_1"}},
		"b": {ID: "b", Category: "safety", Weight: 2.0, IsActive: true, ApplicableTiers: []string{"tier_1"}},
	}
	accepted := AcceptedAnswers{
		{QuestionID: "a", Value: 10},
		{QuestionID: "b", Value: 1},
	}

	res := ScoreSubmission(accepted, catalog)

	// (10*1.0 + 1*2.0) / 3.0 = 4.0
	require.Len(t, res.CategoryScores, 1)
	assert.Equal(t, 4.0, res.CategoryScores[0].Score)
	assert.Equal(t, 2, res.CategoryScores[0].QuestionCount)
	assert.Equal(t, 4.0, res.OverallScore)
	assert.Equal(t, RiskMedium, res.RiskLevel)
	assert.False(t, res.CriticalFailureTriggered)
}

func TestScoreSubmission_GlobalMeanNotAverageOfAverages(t *testing.T) {
	// One category with two questions, one with a single question; the
	// overall score weighs every question once, so it differs from the
	// mean of the two category means.
	catalog := map[string]QuestionDefinition{
		"a": {ID: "a", Category: "safety", Weight: 1.0},
		"b": {ID: "b", Category: "safety", Weight: 1.0},
		"c": {ID: "c", Category: "documentation", Weight: 1.0},
	}
	accepted := AcceptedAnswers{
		{QuestionID: "a", Value: 10},
		{QuestionID: "b", Value: 10},
		{QuestionID: "c", Value: 1},
	}

	res := ScoreSubmission(accepted, catalog)

	assert.Equal(t, 7.0, res.OverallScore) // 21/3, not (10+1)/2
	require.Len(t, res.CategoryScores, 2)
	assert.Equal(t, "documentation", res.CategoryScores[0].Category)
	assert.Equal(t, 1.0, res.CategoryScores[0].Score)
	assert.Equal(t, "safety", res.CategoryScores[1].Category)
	assert.Equal(t, 10.0, res.CategoryScores[1].Score)
}

func TestScoreSubmission_CriticalOverride(t *testing.T) {
	catalog := map[string]QuestionDefinition{
		"gas": {ID: "gas", Category: "safety", Weight: 0.5, IsCritical: true},
		"a":   {ID: "a", Category: "safety", Weight: 2.0},
		"b":   {ID: "b", Category: "documentation", Weight: 2.0},
	}
	accepted := AcceptedAnswers{
		{QuestionID: "gas", Value: 1},
		{QuestionID: "a", Value: 10},
		{QuestionID: "b", Value: 10},
	}

	res := ScoreSubmission(accepted, catalog)

	assert.GreaterOrEqual(t, res.OverallScore, 7.5)
	assert.True(t, res.CriticalFailureTriggered)
	assert.Equal(t, RiskHigh, res.RiskLevel)
}

func TestScoreSubmission_CriticalWithAdequateAnswer(t *testing.T) {
	// Only the worst grade on a critical question triggers the override.
	catalog := map[string]QuestionDefinition{
		"gas": {ID: "gas", Category: "safety", Weight: 1.0, IsCritical: true},
	}
	accepted := AcceptedAnswers{{QuestionID: "gas", Value: 5}}

	res := ScoreSubmission(accepted, catalog)

	assert.False(t, res.CriticalFailureTriggered)
	assert.Equal(t, RiskMedium, res.RiskLevel)
}

func TestScoreSubmission_Empty(t *testing.T) {
	res := ScoreSubmission(nil, map[string]QuestionDefinition{})

	assert.Equal(t, 0.0, res.OverallScore)
	assert.Equal(t, RiskHigh, res.RiskLevel)
	assert.Empty(t, res.CategoryScores)
	assert.False(t, res.CriticalFailureTriggered)
}

func TestScoreSubmission_Deterministic(t *testing.T) {
	catalog := testCatalog()
	accepted := AcceptedAnswers{
		{QuestionID: "1.1", Value: 5},
		{QuestionID: "1.2", Value: 10},
		{QuestionID: "2.1", Value: 1},
	}

	first := ScoreSubmission(accepted, catalog)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ScoreSubmission(accepted, catalog))
	}
}

func TestScoreSubmission_Rounding(t *testing.T) {
	// 5*1.0 + 10*0.5 = 10 / 1.5 = 6.666... rounds half-up to 6.7
	catalog := map[string]QuestionDefinition{
		"a": {ID: "a", Category: "safety", Weight: 1.0},
		"b": {ID: "b", Category: "safety", Weight: 0.5},
	}
	accepted := AcceptedAnswers{
		{QuestionID: "a", Value: 5},
		{QuestionID: "b", Value: 10},
	}

	res := ScoreSubmission(accepted, catalog)
	assert.Equal(t, 6.7, res.OverallScore)
}

func TestRound1(t *testing.T) {
	tests := map[float64]float64{
		6.64:  6.6,
		6.65:  6.7,
		6.66:  6.7,
		7.45:  7.5,
		0.0:   0.0,
		10.0:  10.0,
		3.949: 3.9,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, round1(input), "round1(%v)", input)
	}
}
