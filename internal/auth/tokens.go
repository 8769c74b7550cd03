package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed, forged and wrongly typed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well formed tokens past their expiry.
	ErrTokenExpired = errors.New("token has expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are carried by console access and refresh tokens.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Version int    `json:"ver"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// OperatorID is the token subject.
func (c *Claims) OperatorID() string {
	return c.Subject
}

func signToken(claims Claims, secret string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(exp)
	claims.RegisteredClaims.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies an HS256 token of the given type and returns its claims.
func ParseToken(tokenString, secret, tokenType string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Type != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccessToken verifies a console access token.
func ParseAccessToken(tokenString, secret string) (*Claims, error) {
	return ParseToken(tokenString, secret, tokenTypeAccess)
}

func subject(operatorID string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: operatorID}
}
