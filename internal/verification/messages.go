package verification

import (
	"errors"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/provider"
)

// User facing messages for failed submissions.
const (
	MessageInvalidInput = "Please correct the highlighted fields and try again."
	MessageInFlight     = "A verification is already in progress. Please wait for it to finish."
	MessageUnauthorized = "Your session has expired. Please log in again."
	MessageRateLimited  = "Too many verification requests. Please try again later."
	MessageTimeout      = "The verification service took too long to respond. Please try again."
	MessageFailed       = "Verification failed. Please try again."
	MessageVerified     = "Verification completed successfully."
	MessageBadResponse  = "The verification service returned an unreadable response."
)

// UserMessage turns any submission error into the single notification shown
// to the operator. Provider supplied messages win where the taxonomy allows.
func UserMessage(err error) string {
	if err == nil {
		return MessageVerified
	}
	var verr *document.ValidationError
	switch {
	case errors.As(err, &verr):
		return MessageInvalidInput
	case errors.Is(err, ErrSubmissionInFlight):
		return MessageInFlight
	}

	switch provider.CategoryOf(err) {
	case provider.CategoryUnauthorized:
		return MessageUnauthorized
	case provider.CategoryRateLimited:
		return MessageRateLimited
	case provider.CategoryTimeout:
		return MessageTimeout
	case provider.CategoryBadData:
		return MessageBadResponse
	case provider.CategoryTransport, provider.CategoryProviderFailure:
		if msg := provider.ServerMessage(err); msg != "" {
			return msg
		}
	}
	return MessageFailed
}

// ErrorKind is a short label for err used in audit records and metrics.
func ErrorKind(err error) string {
	var verr *document.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrSubmissionInFlight):
		return "in_flight"
	}
	if c := provider.CategoryOf(err); c != "" {
		return string(c)
	}
	return "internal"
}
