package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// AcceptedAnswers is a validated answer set, deduplicated on question id
// (last submitted value wins), ready for scoring.
type AcceptedAnswers []AnswerRecord

// UnknownQuestionError reports answers referencing ids the catalog has
// never known. Always rejects the whole submission.
type UnknownQuestionError struct {
	IDs []string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("unknown question ids: %s", strings.Join(e.IDs, ", "))
}

// TierMismatchError reports answers to questions that exist but are not
// defined for the audit's tier. Always rejects the whole submission.
type TierMismatchError struct {
	Tier string
	IDs  []string
}

func (e *TierMismatchError) Error() string {
	return fmt.Sprintf("questions not applicable to tier %s: %s", e.Tier, strings.Join(e.IDs, ", "))
}

// InvalidAnswerValueError reports every answer whose value falls outside
// its question's domain, aggregated so a caller can surface all offending
// fields in one round trip.
type InvalidAnswerValueError struct {
	IDs []string
}

func (e *InvalidAnswerValueError) Error() string {
	return fmt.Sprintf("answer values out of range for question ids: %s", strings.Join(e.IDs, ", "))
}

// dedupe collapses duplicate question ids, keeping the last occurrence.
// Order follows first appearance so repeated validation of the same input
// yields the same accepted sequence.
func dedupe(answers []AnswerRecord) []AnswerRecord {
	idx := make(map[string]int, len(answers))
	out := make([]AnswerRecord, 0, len(answers))
	for _, a := range answers {
		if i, ok := idx[a.QuestionID]; ok {
			out[i] = a
			continue
		}
		idx[a.QuestionID] = len(out)
		out = append(out, a)
	}
	return out
}

// ValidateSubmission checks a candidate answer set against a resolved
// catalog snapshot. The policy is deliberately permissive about catalog
// lifecycle churn and strict about identity and domain churn: answers to
// deactivated questions are accepted (an audit collected before a catalog
// edit must not be stranded by it), while unknown ids, tier mismatches,
// and out-of-domain values are always rejected.
func ValidateSubmission(tier string, answers []AnswerRecord, catalog map[string]QuestionDefinition) (AcceptedAnswers, error) {
	deduped := dedupe(answers)

	var unknown, wrongTier, badValue []string
	for _, a := range deduped {
		q, ok := catalog[a.QuestionID]
		if !ok {
			unknown = append(unknown, a.QuestionID)
			continue
		}
		if !q.AppliesTo(tier) {
			wrongTier = append(wrongTier, a.QuestionID)
			continue
		}
		if !q.AllowsValue(a.Value) {
			badValue = append(badValue, a.QuestionID)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownQuestionError{IDs: unknown}
	}
	if len(wrongTier) > 0 {
		sort.Strings(wrongTier)
		return nil, &TierMismatchError{Tier: tier, IDs: wrongTier}
	}
	if len(badValue) > 0 {
		sort.Strings(badValue)
		return nil, &InvalidAnswerValueError{IDs: badValue}
	}

	return AcceptedAnswers(deduped), nil
}

// Engine resolves submissions against a catalog source and scores them.
// It holds no state beyond the reader and is safe for concurrent use.
type Engine struct {
	catalog CatalogReader
}

func NewEngine(c CatalogReader) *Engine {
	return &Engine{catalog: c}
}

// Evaluate resolves the referenced questions in a single catalog read,
// validates the answer set, and scores it. Validation failures are
// returned as the typed errors above; scoring itself cannot fail on
// validated input.
func (e *Engine) Evaluate(ctx context.Context, tier string, answers []AnswerRecord) (*OverallResult, error) {
	ids := make([]string, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		if !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}

	catalog, err := e.catalog.LookupQuestions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving questions: %w", err)
	}

	accepted, err := ValidateSubmission(tier, answers, catalog)
	if err != nil {
		return nil, err
	}

	result := ScoreSubmission(accepted, catalog)
	return &result, nil
}
