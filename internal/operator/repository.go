package operator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists operators.
type Repository interface {
	Create(ctx context.Context, op Operator) error
	FindByEmail(ctx context.Context, email string) (Operator, error)
	FindByID(ctx context.Context, id string) (Operator, error)
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed operator repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectOperator = `SELECT id, email, name, password_hash, token_version, created_at, last_login FROM operators`

// Create inserts a new operator.
func (r *PostgresRepository) Create(ctx context.Context, op Operator) error {
	id, err := uuid.Parse(op.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO operators (id, email, name, password_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, op.Email, op.Name, op.PasswordHash, op.TokenVersion, op.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrExists
	}
	return err
}

// FindByEmail fetches an operator by login email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Operator, error) {
	return scanOperator(r.db.QueryRow(ctx, selectOperator+` WHERE email = $1`, email))
}

// FindByID fetches an operator by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Operator, error) {
	opID, err := uuid.Parse(id)
	if err != nil {
		return Operator{}, ErrNotFound
	}
	return scanOperator(r.db.QueryRow(ctx, selectOperator+` WHERE id = $1`, opID))
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	return r.update(ctx, `UPDATE operators SET token_version = $1 WHERE id = $2`, id, version)
}

// TouchLogin records a successful login.
func (r *PostgresRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, `UPDATE operators SET last_login = $1 WHERE id = $2`, id, at.UTC())
}

func (r *PostgresRepository) update(ctx context.Context, query, id string, value any) error {
	opID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, query, value, opID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOperator(row pgx.Row) (Operator, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		op        Operator
	)
	if err := row.Scan(&id, &op.Email, &op.Name, &op.PasswordHash, &op.TokenVersion, &createdAt, &op.LastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operator{}, ErrNotFound
		}
		return Operator{}, err
	}
	op.ID = id.String()
	op.CreatedAt = createdAt.UTC()
	return op, nil
}
