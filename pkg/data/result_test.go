package data

import (
	"context"
	"testing"

	"github.com/rentwatch/ractl/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *audit.OverallResult {
	return &audit.OverallResult{
		OverallScore: 6.7,
		RiskLevel:    audit.RiskMedium,
		CategoryScores: []audit.CategoryScore{
			{Category: "documentation", Score: 5.0, QuestionCount: 1},
			{Category: "safety", Score: 7.3, QuestionCount: 2},
		},
		Recommendation: audit.RiskMedium.Recommendation(false),
	}
}

func TestSaveResult_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a, err := CreateAudit(ctx, db, "tier_1", "9 Elm Rd", "T. Achebe")
	require.NoError(t, err)

	require.NoError(t, SaveResult(ctx, db, a.Token, testResult()))

	got, err := GetResult(ctx, db, a.Token)
	require.NoError(t, err)
	assert.Equal(t, 6.7, got.OverallScore)
	assert.Equal(t, audit.RiskMedium, got.RiskLevel)
	assert.False(t, got.CriticalFailureTriggered)
	require.Len(t, got.CategoryScores, 2)
	assert.Equal(t, "documentation", got.CategoryScores[0].Category)
	assert.Equal(t, "safety", got.CategoryScores[1].Category)
}

func TestSaveResult_UpsertOnRecompute(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a, err := CreateAudit(ctx, db, "tier_1", "9 Elm Rd", "T. Achebe")
	require.NoError(t, err)
	require.NoError(t, SaveResult(ctx, db, a.Token, testResult()))

	recomputed := &audit.OverallResult{
		OverallScore:             2.0,
		RiskLevel:                audit.RiskHigh,
		CriticalFailureTriggered: true,
		CategoryScores: []audit.CategoryScore{
			{Category: "safety", Score: 2.0, QuestionCount: 2},
		},
	}
	require.NoError(t, SaveResult(ctx, db, a.Token, recomputed))

	got, err := GetResult(ctx, db, a.Token)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.OverallScore)
	assert.Equal(t, audit.RiskHigh, got.RiskLevel)
	assert.True(t, got.CriticalFailureTriggered)
	require.Len(t, got.CategoryScores, 1)
}

func TestGetResult_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetResult(context.Background(), db, "no-such-token")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestSaveResult_NilResult(t *testing.T) {
	db := setupTestDB(t)
	err := SaveResult(context.Background(), db, "tok", nil)
	assert.Error(t, err)
}

func TestCatalogStore_ImplementsReader(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, SaveQuestions(ctx, db, testQuestions()))

	var reader audit.CatalogReader = NewCatalogStore(db)

	list, err := reader.ListQuestions(ctx, "tier_1")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	m, err := reader.LookupQuestions(ctx, []string{"3.2"})
	require.NoError(t, err)
	assert.Contains(t, m, "3.2")
}
