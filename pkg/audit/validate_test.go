package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() map[string]QuestionDefinition {
	return map[string]QuestionDefinition{
		"1.1": {ID: "1.1", Category: "safety", Weight: 2.0, IsCritical: true, IsActive: true, ApplicableTiers: []string{"tier_1", "tier_2"}},
		"1.2": {ID: "1.2", Category: "safety", Weight: 1.0, IsActive: true, ApplicableTiers: []string{"tier_1", "tier_2"}},
		"2.1": {ID: "2.1", Category: "documentation", Weight: 1.0, IsActive: true, ApplicableTiers: []string{"tier_1"}},
		"3.2": {ID: "3.2", Category: "maintenance", Weight: 0.5, IsActive: false, ApplicableTiers: []string{"tier_1", "tier_2"}},
	}
}

func TestValidateSubmission_Accepts(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 10},
		{QuestionID: "1.2", Value: 5, Comment: "gas cert seen on site"},
	}
	accepted, err := ValidateSubmission("tier_1", answers, testCatalog())
	require.NoError(t, err)
	assert.Len(t, accepted, 2)
}

func TestValidateSubmission_AcceptsInactiveQuestion(t *testing.T) {
	// 3.2 was retired after the audit was created; its answer must
	// still validate and score.
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 5},
		{QuestionID: "3.2", Value: 10},
	}
	accepted, err := ValidateSubmission("tier_1", answers, testCatalog())
	require.NoError(t, err)
	assert.Len(t, accepted, 2)
}

func TestValidateSubmission_UnknownID(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 5},
		{QuestionID: "9.9", Value: 5},
		{QuestionID: "8.8", Value: 1},
	}
	_, err := ValidateSubmission("tier_1", answers, testCatalog())
	require.Error(t, err)

	var unknown *UnknownQuestionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"8.8", "9.9"}, unknown.IDs)
}

func TestValidateSubmission_TierMismatch(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 5},
		{QuestionID: "2.1", Value: 5}, // tier_1 only
	}
	_, err := ValidateSubmission("tier_2", answers, testCatalog())
	require.Error(t, err)

	var mismatch *TierMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "tier_2", mismatch.Tier)
	assert.Equal(t, []string{"2.1"}, mismatch.IDs)
}

func TestValidateSubmission_InvalidValuesAggregated(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 3},
		{QuestionID: "1.2", Value: 7},
		{QuestionID: "2.1", Value: 10},
	}
	_, err := ValidateSubmission("tier_1", answers, testCatalog())
	require.Error(t, err)

	var invalid *InvalidAnswerValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"1.1", "1.2"}, invalid.IDs)
}

func TestValidateSubmission_UnknownReportedBeforeValue(t *testing.T) {
	// An unknown id rejects the submission even when other answers
	// also carry bad values.
	answers := []AnswerRecord{
		{QuestionID: "9.9", Value: 5},
		{QuestionID: "1.1", Value: 3},
	}
	_, err := ValidateSubmission("tier_1", answers, testCatalog())
	var unknown *UnknownQuestionError
	require.ErrorAs(t, err, &unknown)
}

func TestValidateSubmission_DuplicateLastWins(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 1},
		{QuestionID: "1.1", Value: 10},
	}
	accepted, err := ValidateSubmission("tier_1", answers, testCatalog())
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, 10, accepted[0].Value)
}

func TestValidateSubmission_CatalogShrinkTolerance(t *testing.T) {
	answers := []AnswerRecord{
		{QuestionID: "1.1", Value: 10},
		{QuestionID: "1.2", Value: 5},
	}

	s1 := testCatalog()
	accepted1, err := ValidateSubmission("tier_1", answers, s1)
	require.NoError(t, err)
	r1 := ScoreSubmission(accepted1, s1)

	// Deactivate an unanswered question between snapshots.
	s2 := testCatalog()
	q := s2["2.1"]
	q.IsActive = false
	s2["2.1"] = q

	accepted2, err := ValidateSubmission("tier_1", answers, s2)
	require.NoError(t, err)
	r2 := ScoreSubmission(accepted2, s2)

	assert.Equal(t, r1, r2)
}

type fakeCatalog struct {
	questions map[string]QuestionDefinition
}

func (f *fakeCatalog) ListQuestions(_ context.Context, tier string) ([]QuestionDefinition, error) {
	var out []QuestionDefinition
	for _, q := range f.questions {
		if q.IsActive && q.AppliesTo(tier) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeCatalog) LookupQuestions(_ context.Context, ids []string) (map[string]QuestionDefinition, error) {
	out := make(map[string]QuestionDefinition)
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func TestEngine_Evaluate(t *testing.T) {
	eng := NewEngine(&fakeCatalog{questions: testCatalog()})

	res, err := eng.Evaluate(context.Background(), "tier_1", []AnswerRecord{
		{QuestionID: "1.1", Value: 10},
		{QuestionID: "1.2", Value: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, res.RiskLevel)
	assert.Equal(t, 10.0, res.OverallScore)
}

func TestEngine_Evaluate_ValidationError(t *testing.T) {
	eng := NewEngine(&fakeCatalog{questions: testCatalog()})

	_, err := eng.Evaluate(context.Background(), "tier_1", []AnswerRecord{
		{QuestionID: "nope", Value: 10},
	})
	var unknown *UnknownQuestionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"nope"}, unknown.IDs)
}
