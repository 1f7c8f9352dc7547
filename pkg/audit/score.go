package audit

import (
	"math"
	"sort"
)

const worstAnswerValue = 1

// CategoryScore is the weighted mean for one category, 0-10 scale.
type CategoryScore struct {
	Category      string  `json:"category" yaml:"category"`
	Score         float64 `json:"score" yaml:"score"`
	QuestionCount int     `json:"question_count" yaml:"questionCount"`
}

// OverallResult is the scored outcome of one submission. It is always
// re-derivable from the catalog snapshot and answer set; persisted copies
// are caches, not sources of truth.
type OverallResult struct {
	OverallScore             float64         `json:"overall_score" yaml:"overallScore"`
	RiskLevel                RiskLevel       `json:"risk_level" yaml:"riskLevel"`
	CategoryScores           []CategoryScore `json:"category_scores" yaml:"categoryScores"`
	CriticalFailureTriggered bool            `json:"critical_failure_triggered" yaml:"criticalFailureTriggered"`
	Recommendation           string          `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// ScoreSubmission converts a validated answer set into category scores, an
// overall score, and a risk classification. The overall score is a single
// global weighted mean over all answered questions, computed independently
// of the per-category means so uneven category sizes do not distort weight.
// Answers to questions missing from the catalog map are ignored; the
// validator guarantees there are none.
func ScoreSubmission(accepted AcceptedAnswers, catalog map[string]QuestionDefinition) OverallResult {
	if len(accepted) == 0 {
		// Absence of evidence is treated conservatively.
		return OverallResult{
			OverallScore:   0,
			RiskLevel:      RiskHigh,
			CategoryScores: []CategoryScore{},
			Recommendation: RiskHigh.Recommendation(false),
		}
	}

	type sums struct {
		weighted float64
		weights  float64
		count    int
	}

	var total sums
	byCategory := make(map[string]*sums)
	criticalFailure := false

	for _, a := range accepted {
		q, ok := catalog[a.QuestionID]
		if !ok {
			continue
		}

		w := float64(a.Value) * q.Weight
		total.weighted += w
		total.weights += q.Weight
		total.count++

		c, ok := byCategory[q.Category]
		if !ok {
			c = &sums{}
			byCategory[q.Category] = c
		}
		c.weighted += w
		c.weights += q.Weight
		c.count++

		if q.IsCritical && a.Value == worstAnswerValue {
			criticalFailure = true
		}
	}

	categories := make([]CategoryScore, 0, len(byCategory))
	for name, c := range byCategory {
		categories = append(categories, CategoryScore{
			Category:      name,
			Score:         round1(c.weighted / c.weights),
			QuestionCount: c.count,
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	var overall float64
	if total.weights > 0 {
		overall = round1(total.weighted / total.weights)
	}

	level := ClassifyRisk(overall, criticalFailure)

	return OverallResult{
		OverallScore:             overall,
		RiskLevel:                level,
		CategoryScores:           categories,
		CriticalFailureTriggered: criticalFailure,
		Recommendation:           level.Recommendation(criticalFailure),
	}
}
