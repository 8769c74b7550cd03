package auth

import (
	"context"
	"errors"
	"time"

	"github.com/congo-pay/admin_console/internal/config"
	"github.com/congo-pay/admin_console/internal/operator"
)

// ErrTokenRevoked is returned for tokens issued before the last logout.
var ErrTokenRevoked = errors.New("token version invalidated")

// Service issues and revokes operator tokens.
type Service struct {
	cfg  config.Config
	repo operator.Repository
	now  func() time.Time
}

// NewService builds the token service.
func NewService(cfg config.Config, repo operator.Repository) *Service {
	return &Service{cfg: cfg, repo: repo, now: time.Now}
}

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues tokens for an authenticated operator.
func (s *Service) Login(op operator.Operator) (TokenPair, error) {
	now := s.now()
	access, _, err := signToken(Claims{Email: op.Email, Version: op.TokenVersion, Type: tokenTypeAccess, RegisteredClaims: subject(op.ID)},
		s.cfg.JWTSecret, now, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := signToken(Claims{Version: op.TokenVersion, Type: tokenTypeRefresh, RegisteredClaims: subject(op.ID)},
		s.cfg.RefreshSecret, now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseToken(refreshToken, s.cfg.RefreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", 0, err
	}
	op, err := s.Authorize(ctx, claims)
	if err != nil {
		return "", 0, err
	}

	signed, _, err := signToken(Claims{Email: op.Email, Version: op.TokenVersion, Type: tokenTypeAccess, RegisteredClaims: subject(op.ID)},
		s.cfg.JWTSecret, s.now(), s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Authorize checks that the token version of claims is still current.
func (s *Service) Authorize(ctx context.Context, claims *Claims) (operator.Operator, error) {
	op, err := s.repo.FindByID(ctx, claims.OperatorID())
	if err != nil {
		return operator.Operator{}, ErrTokenRevoked
	}
	if op.TokenVersion != claims.Version {
		return operator.Operator{}, ErrTokenRevoked
	}
	return op, nil
}

// Logout increments token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, operatorID string) error {
	op, err := s.repo.FindByID(ctx, operatorID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, op.ID, op.TokenVersion+1)
}
