package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Service manages console operators.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new operator service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates an operator with a hashed password.
func (s *Service) Register(ctx context.Context, name string, creds Credentials) (Operator, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Operator{}, errors.New("a valid email is required")
	}
	if len(creds.Password) < minPasswordLength {
		return Operator{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return Operator{}, err
	}

	op := Operator{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, op); err != nil {
		return Operator{}, err
	}
	return op, nil
}

// EnsureBootstrap registers the configured admin operator unless it exists.
func (s *Service) EnsureBootstrap(ctx context.Context, email, password string) (Operator, error) {
	op, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return op, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Operator{}, err
	}
	return s.Register(ctx, "Administrator", Credentials{Email: email, Password: password})
}

// Authenticate verifies credentials and records the login.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Operator, error) {
	op, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Operator{}, ErrInvalidCredentials
		}
		return Operator{}, err
	}
	if err := bcrypt.CompareHashAndPassword(op.PasswordHash, []byte(creds.Password)); err != nil {
		return Operator{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, op.ID, now); err != nil {
		return Operator{}, err
	}
	op.LastLogin = &now
	return op, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
