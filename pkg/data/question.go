package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rentwatch/ractl/pkg/audit"
)

const (
	upsertQuestionSQL = `INSERT INTO question (
			id,
			text,
			category,
			weight,
			is_critical,
			is_active,
			valid_values,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			category = excluded.category,
			weight = excluded.weight,
			is_critical = excluded.is_critical,
			is_active = excluded.is_active,
			valid_values = excluded.valid_values,
			updated_at = excluded.updated_at
	`

	deleteQuestionTiersSQL = `DELETE FROM question_tier WHERE question_id = ?`

	insertQuestionTierSQL = `INSERT INTO question_tier (question_id, tier) VALUES (?, ?)`

	selectActiveQuestionsSQL = `SELECT
			q.id,
			q.text,
			q.category,
			q.weight,
			q.is_critical,
			q.is_active,
			q.valid_values
		FROM question q
		JOIN question_tier t ON q.id = t.question_id
		WHERE q.is_active = 1
		AND t.tier = ?
		ORDER BY q.id
	`

	selectQuestionTiersSQL = `SELECT tier FROM question_tier WHERE question_id = ? ORDER BY tier`

	deactivateQuestionSQL = `UPDATE question SET is_active = 0, updated_at = ? WHERE id = ?`
)

// selectQuestionsByIDSQL needs a placeholder per id; built per call.
func selectQuestionsByIDSQL(n int) string {
	return fmt.Sprintf(`SELECT
			id,
			text,
			category,
			weight,
			is_critical,
			is_active,
			valid_values
		FROM question
		WHERE id IN (%s)`,
		strings.TrimSuffix(strings.Repeat("?,", n), ","))
}

// SaveQuestions upserts catalog definitions along with their tier
// assignments in a single transaction.
func SaveQuestions(ctx context.Context, db *sql.DB, questions []audit.QuestionDefinition) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, q := range questions {
		if _, err := tx.ExecContext(ctx, upsertQuestionSQL,
			q.ID, q.Text, q.Category, q.Weight,
			boolToInt(q.IsCritical), boolToInt(q.IsActive),
			encodeValues(q.ValidValues), now,
		); err != nil {
			return fmt.Errorf("failed to upsert question %s: %w", q.ID, err)
		}

		if _, err := tx.ExecContext(ctx, deleteQuestionTiersSQL, q.ID); err != nil {
			return fmt.Errorf("failed to clear tiers for question %s: %w", q.ID, err)
		}
		for _, tier := range q.ApplicableTiers {
			if _, err := tx.ExecContext(ctx, insertQuestionTierSQL, q.ID, tier); err != nil {
				return fmt.Errorf("failed to insert tier %s for question %s: %w", tier, q.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListQuestions returns active definitions applicable to the tier, used
// when rendering a fresh questionnaire.
func ListQuestions(ctx context.Context, db *sql.DB, tier string) ([]audit.QuestionDefinition, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.QueryContext(ctx, selectActiveQuestionsSQL, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions for tier %s: %w", tier, err)
	}
	defer rows.Close()

	list := make([]audit.QuestionDefinition, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question rows: %w", err)
	}

	for i := range list {
		if err := loadTiers(ctx, db, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// LookupQuestions resolves an arbitrary id set regardless of the active
// flag. Ids the catalog has never known are simply omitted; the caller
// distinguishes not-found from found-but-inactive.
func LookupQuestions(ctx context.Context, db *sql.DB, ids []string) (map[string]audit.QuestionDefinition, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	out := make(map[string]audit.QuestionDefinition, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, selectQuestionsByIDSQL(len(ids)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question rows: %w", err)
	}

	for id, q := range out {
		if err := loadTiers(ctx, db, &q); err != nil {
			return nil, err
		}
		out[id] = q
	}
	return out, nil
}

// DeactivateQuestion retires a definition from new questionnaires without
// removing it; already-collected answers keep resolving.
func DeactivateQuestion(ctx context.Context, db *sql.DB, id string) error {
	if db == nil {
		return errDBNotInitialized
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx, deactivateQuestionSQL, now, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate question %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("question not found: %s", id)
	}
	return nil
}

func scanQuestion(rows *sql.Rows) (audit.QuestionDefinition, error) {
	var q audit.QuestionDefinition
	var text sql.NullString
	var critical, active int
	var values string
	if err := rows.Scan(&q.ID, &text, &q.Category, &q.Weight, &critical, &active, &values); err != nil {
		return q, fmt.Errorf("failed to scan question row: %w", err)
	}
	q.Text = text.String
	q.IsCritical = critical == 1
	q.IsActive = active == 1
	q.ValidValues = decodeValues(values)
	return q, nil
}

func loadTiers(ctx context.Context, db *sql.DB, q *audit.QuestionDefinition) error {
	rows, err := db.QueryContext(ctx, selectQuestionTiersSQL, q.ID)
	if err != nil {
		return fmt.Errorf("failed to query tiers for question %s: %w", q.ID, err)
	}
	defer rows.Close()

	q.ApplicableTiers = q.ApplicableTiers[:0]
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("failed to scan tier row: %w", err)
		}
		q.ApplicableTiers = append(q.ApplicableTiers, t)
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeValues(values []int) string {
	if len(values) == 0 {
		values = audit.DefaultAnswerValues
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func decodeValues(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
