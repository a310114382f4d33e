package ux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
)

// ErrorWithSuggestion wraps an error with a recovery hint.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError attaches a next step to errors that do not carry one.
// Coded errors already list their own suggestions and pass through.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := vedicerrors.As(err); ok && len(ve.Suggestions) > 0 {
		return err
	}

	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrAuthExpired):
		return NewErrorWithSuggestion(err, "Your session ended. Run 'vedic auth login' to sign in again")
	case errors.Is(err, api.ErrNetwork):
		return NewErrorWithSuggestion(err, "Check the backend with 'vedic doctor' or point --api-url at a running server")
	case errors.Is(err, api.ErrValidation):
		return NewErrorWithSuggestion(err, "Dates use YYYY-MM-DD and times HH:MM; search a location to fill coordinates")
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 500:
		return NewErrorWithSuggestion(err, "The backend failed to answer; try again later or check its logs")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no profile selected"):
		return NewErrorWithSuggestion(err, "Pick one with 'vedic profile select <id>' or create one with 'vedic profile create'")
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return NewErrorWithSuggestion(err, "Check VEDIC_API_URL or --api-url")
	case strings.Contains(msg, "permission denied"):
		return NewErrorWithSuggestion(err, "Check permissions on the state directory (see 'vedic config path')")
	}
	return err
}

// FormatError enhances err and prefixes it with context.
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
