package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/admin_console/internal/document"
)

// Outcome values stored with an attempt.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Attempt is the audit record of one submission that reached the provider.
// Only the masked number is kept.
type Attempt struct {
	ID           string        `json:"id"`
	OperatorID   string        `json:"operatorId"`
	SubjectID    string        `json:"subjectId"`
	DocumentType document.Type `json:"documentType"`
	MaskedNumber string        `json:"maskedNumber"`
	Outcome      string        `json:"outcome"`
	ErrorKind    string        `json:"errorKind,omitempty"`
	Message      string        `json:"message,omitempty"`
	DurationMS   int64         `json:"durationMs"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Repository persists verification attempts.
type Repository interface {
	Record(ctx context.Context, attempt Attempt) error
	ListByOperator(ctx context.Context, operatorID string, limit int) ([]Attempt, error)
}

// PostgresRepository stores attempts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed attempt repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record inserts an attempt.
func (r *PostgresRepository) Record(ctx context.Context, a Attempt) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	operatorID, err := uuid.Parse(a.OperatorID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO verification_attempts
        (id, operator_id, subject_id, document_type, masked_number, outcome, error_kind, message, duration_ms, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, operatorID, a.SubjectID, a.DocumentType.String(), a.MaskedNumber, a.Outcome, a.ErrorKind, a.Message,
		a.DurationMS, a.CreatedAt.UTC())
	return err
}

// ListByOperator returns the most recent attempts of an operator, newest first.
func (r *PostgresRepository) ListByOperator(ctx context.Context, operatorID string, limit int) ([]Attempt, error) {
	opID, err := uuid.Parse(operatorID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, operator_id, subject_id, document_type, masked_number, outcome,
        error_kind, message, duration_ms, created_at
        FROM verification_attempts WHERE operator_id = $1 ORDER BY created_at DESC LIMIT $2`, opID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a          Attempt
			id, opUUID uuid.UUID
			docType    string
			createdAt  time.Time
		)
		if err := rows.Scan(&id, &opUUID, &a.SubjectID, &docType, &a.MaskedNumber, &a.Outcome,
			&a.ErrorKind, &a.Message, &a.DurationMS, &createdAt); err != nil {
			return nil, err
		}
		t, err := document.ParseType(docType)
		if err != nil {
			return nil, err
		}
		a.ID = id.String()
		a.OperatorID = opUUID.String()
		a.DocumentType = t
		a.CreatedAt = createdAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
