package audit

import "context"

const (
	// Weight bounds enforced at catalog import time.
	WeightMin = 0.5
	WeightMax = 2.0
)

// Tiers are the five audit tiers, lowest risk profile first.
var Tiers = []string{"tier_1", "tier_2", "tier_3", "tier_4", "tier_5"}

// DefaultAnswerValues is the answer domain used when a question does not
// declare its own: 1 = poor, 5 = adequate, 10 = excellent.
var DefaultAnswerValues = []int{1, 5, 10}

// QuestionDefinition is one entry in the question catalog. Definitions are
// immutable within a catalog snapshot; edits between snapshots are expected
// and must not invalidate audits collected under an earlier snapshot.
type QuestionDefinition struct {
	ID              string   `json:"id" yaml:"id" validate:"required"`
	Text            string   `json:"text,omitempty" yaml:"text,omitempty"`
	Category        string   `json:"category" yaml:"category" validate:"required"`
	Weight          float64  `json:"weight" yaml:"weight" validate:"gte=0.5,lte=2.0"`
	IsCritical      bool     `json:"is_critical,omitempty" yaml:"isCritical,omitempty"`
	IsActive        bool     `json:"is_active" yaml:"isActive"`
	ApplicableTiers []string `json:"tiers" yaml:"tiers" validate:"min=1,dive,required"`
	ValidValues     []int    `json:"valid_values,omitempty" yaml:"validValues,omitempty" validate:"omitempty,dive,gt=0"`
}

// AppliesTo reports whether the question is defined for the given tier.
func (q QuestionDefinition) AppliesTo(tier string) bool {
	for _, t := range q.ApplicableTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// AllowsValue reports whether v is in the question's answer domain.
func (q QuestionDefinition) AllowsValue(v int) bool {
	domain := q.ValidValues
	if len(domain) == 0 {
		domain = DefaultAnswerValues
	}
	for _, d := range domain {
		if d == v {
			return true
		}
	}
	return false
}

// AnswerRecord is a single respondent answer. Comment is carried through
// untouched and plays no part in scoring.
type AnswerRecord struct {
	QuestionID string `json:"question_id" yaml:"questionId" validate:"required"`
	Value      int    `json:"value" yaml:"value"`
	Comment    string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// CatalogReader is the read-only catalog view the core needs. ListQuestions
// serves presentation (active, tier-applicable definitions only), while
// LookupQuestions serves validation and must resolve retired definitions
// too, omitting ids the catalog has never known.
type CatalogReader interface {
	ListQuestions(ctx context.Context, tier string) ([]QuestionDefinition, error)
	LookupQuestions(ctx context.Context, ids []string) (map[string]QuestionDefinition, error)
}
