package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentwatch/ractl/pkg/audit"
)

const (
	AuditStatusCreated   = "created"
	AuditStatusSubmitted = "submitted"

	insertAuditSQL = `INSERT INTO audit (
			token,
			tier,
			property_address,
			landlord_name,
			status,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectAuditSQL = `SELECT
			token,
			tier,
			property_address,
			landlord_name,
			status,
			created_at,
			submitted_at
		FROM audit
		WHERE token = ?
	`

	selectAuditTokensSQL = `SELECT token FROM audit WHERE status = ? ORDER BY created_at`

	markAuditSubmittedSQL = `UPDATE audit SET status = ?, submitted_at = ? WHERE token = ?`

	upsertAnswerSQL = `INSERT INTO answer (
			audit_token,
			question_id,
			value,
			comment
		)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(audit_token, question_id) DO UPDATE SET
			value = excluded.value,
			comment = excluded.comment
	`

	selectAnswersSQL = `SELECT question_id, value, COALESCE(comment, '')
		FROM answer
		WHERE audit_token = ?
		ORDER BY question_id
	`
)

// ErrAuditNotFound is returned when a token resolves to no audit.
var ErrAuditNotFound = errors.New("audit not found")

// Audit is one token-addressed audit record.
type Audit struct {
	Token           string     `json:"token" yaml:"token"`
	Tier            string     `json:"tier" yaml:"tier"`
	PropertyAddress string     `json:"property_address" yaml:"propertyAddress"`
	LandlordName    string     `json:"landlord_name" yaml:"landlordName"`
	Status          string     `json:"status" yaml:"status"`
	Created         time.Time  `json:"created_at" yaml:"createdAt"`
	Submitted       *time.Time `json:"submitted_at,omitempty" yaml:"submittedAt,omitempty"`
}

// CreateAudit inserts a new audit and returns it with a fresh token.
func CreateAudit(ctx context.Context, db *sql.DB, tier, address, landlord string) (*Audit, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	a := &Audit{
		Token:           uuid.NewString(),
		Tier:            tier,
		PropertyAddress: address,
		LandlordName:    landlord,
		Status:          AuditStatusCreated,
		Created:         time.Now().UTC(),
	}

	if _, err := db.ExecContext(ctx, insertAuditSQL,
		a.Token, a.Tier, a.PropertyAddress, a.LandlordName,
		a.Status, a.Created.Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("failed to insert audit: %w", err)
	}
	return a, nil
}

// GetAudit resolves an audit by token.
func GetAudit(ctx context.Context, db *sql.DB, token string) (*Audit, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var a Audit
	var created string
	var submitted sql.NullString
	err := db.QueryRowContext(ctx, selectAuditSQL, token).Scan(
		&a.Token, &a.Tier, &a.PropertyAddress, &a.LandlordName,
		&a.Status, &created, &submitted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit row: %w", err)
	}

	a.Created, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit created date: %w", err)
	}
	if submitted.Valid && submitted.String != "" {
		t, err := time.Parse(time.RFC3339, submitted.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse audit submitted date: %w", err)
		}
		a.Submitted = &t
	}
	return &a, nil
}

// ListAuditTokens returns tokens in the given status, oldest first.
func ListAuditTokens(ctx context.Context, db *sql.DB, status string) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.QueryContext(ctx, selectAuditTokensSQL, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// SaveAnswers upserts the answer set for an audit and marks it submitted,
// all in one transaction. Resubmission overwrites per question id.
func SaveAnswers(ctx context.Context, db *sql.DB, token string, answers []audit.AnswerRecord) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range answers {
		if _, err := tx.ExecContext(ctx, upsertAnswerSQL, token, a.QuestionID, a.Value, a.Comment); err != nil {
			return fmt.Errorf("failed to upsert answer %s: %w", a.QuestionID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, markAuditSubmittedSQL, AuditStatusSubmitted, now, token); err != nil {
		return fmt.Errorf("failed to mark audit submitted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAnswers returns the stored answer set for an audit.
func GetAnswers(ctx context.Context, db *sql.DB, token string) ([]audit.AnswerRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.QueryContext(ctx, selectAnswersSQL, token)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers := make([]audit.AnswerRecord, 0)
	for rows.Next() {
		var a audit.AnswerRecord
		if err := rows.Scan(&a.QuestionID, &a.Value, &a.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
