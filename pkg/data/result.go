package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rentwatch/ractl/pkg/audit"
)

const (
	upsertResultSQL = `INSERT INTO result (
			audit_token,
			overall_score,
			risk_level,
			critical_failure,
			recommendation,
			scored_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(audit_token) DO UPDATE SET
			overall_score = excluded.overall_score,
			risk_level = excluded.risk_level,
			critical_failure = excluded.critical_failure,
			recommendation = excluded.recommendation,
			scored_at = excluded.scored_at
	`

	deleteCategoryScoresSQL = `DELETE FROM category_score WHERE audit_token = ?`

	insertCategoryScoreSQL = `INSERT INTO category_score (
			audit_token,
			category,
			score,
			question_count
		)
		VALUES (?, ?, ?, ?)
	`

	selectResultSQL = `SELECT
			overall_score,
			risk_level,
			critical_failure,
			COALESCE(recommendation, '')
		FROM result
		WHERE audit_token = ?
	`

	selectCategoryScoresSQL = `SELECT category, score, question_count
		FROM category_score
		WHERE audit_token = ?
		ORDER BY category
	`
)

// ErrResultNotFound is returned when an audit has not been scored yet.
var ErrResultNotFound = errors.New("result not found")

// SaveResult persists a scored result, replacing any earlier computation.
// Persisted results are a cache; the answer set and catalog remain the
// source of truth.
func SaveResult(ctx context.Context, db *sql.DB, token string, r *audit.OverallResult) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return errors.New("result required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, upsertResultSQL,
		token, r.OverallScore, string(r.RiskLevel),
		boolToInt(r.CriticalFailureTriggered), r.Recommendation, now,
	); err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteCategoryScoresSQL, token); err != nil {
		return fmt.Errorf("failed to clear category scores: %w", err)
	}
	for _, c := range r.CategoryScores {
		if _, err := tx.ExecContext(ctx, insertCategoryScoreSQL,
			token, c.Category, c.Score, c.QuestionCount,
		); err != nil {
			return fmt.Errorf("failed to insert category score %s: %w", c.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetResult reads a persisted result back, category scores in name order.
func GetResult(ctx context.Context, db *sql.DB, token string) (*audit.OverallResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var r audit.OverallResult
	var level string
	var critical int
	err := db.QueryRowContext(ctx, selectResultSQL, token).Scan(
		&r.OverallScore, &level, &critical, &r.Recommendation,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan result row: %w", err)
	}

	r.RiskLevel = audit.RiskLevel(level)
	if !r.RiskLevel.Valid() {
		return nil, fmt.Errorf("invalid persisted risk level: %s", level)
	}
	r.CriticalFailureTriggered = critical == 1

	rows, err := db.QueryContext(ctx, selectCategoryScoresSQL, token)
	if err != nil {
		return nil, fmt.Errorf("failed to query category scores: %w", err)
	}
	defer rows.Close()

	r.CategoryScores = make([]audit.CategoryScore, 0)
	for rows.Next() {
		var c audit.CategoryScore
		if err := rows.Scan(&c.Category, &c.Score, &c.QuestionCount); err != nil {
			return nil, fmt.Errorf("failed to scan category score row: %w", err)
		}
		r.CategoryScores = append(r.CategoryScores, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category score rows: %w", err)
	}
	return &r, nil
}
