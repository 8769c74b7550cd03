package provider

import (
	"errors"
	"fmt"
)

// Category classifies a failed verification call.
type Category string

const (
	CategoryUnauthorized    Category = "unauthorized"
	CategoryRateLimited     Category = "rate_limited"
	CategoryTimeout         Category = "timeout"
	CategoryTransport       Category = "transport"
	CategoryBadData         Category = "bad_data"
	CategoryProviderFailure Category = "provider_failure"
)

var (
	// ErrUnauthorized is wrapped by errors caused by a 401 from the provider.
	ErrUnauthorized = errors.New("provider rejected credentials")
	// ErrRateLimited is wrapped by errors caused by a 429 from the provider.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrVerificationFailed is wrapped when the provider answered with status false.
	ErrVerificationFailed = errors.New("verification failed")
)

// Error is returned for every failed call. Message carries the text supplied
// by the provider when there was one.
type Error struct {
	Category   Category
	StatusCode int
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("provider [%s]", e.Category)
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("provider [%s status=%d]", e.Category, e.StatusCode)
	}
	switch {
	case e.Message != "" && e.Underlying != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	case e.Message != "":
		return prefix + ": " + e.Message
	case e.Underlying != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Underlying)
	default:
		return prefix
	}
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// CategoryOf extracts the category of err, or "" when err did not come from
// this package.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// ServerMessage returns the provider supplied message carried by err, if any.
func ServerMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
