package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk_Bands(t *testing.T) {
	tests := map[float64]RiskLevel{
		10.0:   RiskLow,
		7.5:    RiskLow,
		7.4999: RiskMedium,
		5.0:    RiskMedium,
		4.0:    RiskMedium,
		3.9999: RiskHigh,
		0.0:    RiskHigh,
	}
	for score, expected := range tests {
		assert.Equal(t, expected, ClassifyRisk(score, false), "score %v", score)
	}
}

func TestClassifyRisk_CriticalOverridesScore(t *testing.T) {
	assert.Equal(t, RiskHigh, ClassifyRisk(10.0, true))
	assert.Equal(t, RiskHigh, ClassifyRisk(0.0, true))
}

func TestRiskLevel_Valid(t *testing.T) {
	assert.True(t, RiskLow.Valid())
	assert.True(t, RiskMedium.Valid())
	assert.True(t, RiskHigh.Valid())
	assert.False(t, RiskLevel("critical").Valid())
	assert.False(t, RiskLevel("").Valid())
}

func TestRiskLevel_Recommendation(t *testing.T) {
	assert.NotEmpty(t, RiskLow.Recommendation(false))
	assert.NotEmpty(t, RiskMedium.Recommendation(false))
	assert.NotEmpty(t, RiskHigh.Recommendation(false))
	assert.Contains(t, RiskHigh.Recommendation(true), "critical")
}
