package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrAuthExpired matches responses rejected with 401. The token is no
	// longer valid and the user must log in again.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrNetwork matches transport failures and timeouts.
	ErrNetwork = errors.New("network error, please try again")

	// ErrValidation matches requests refused before they were sent.
	ErrValidation = errors.New("invalid request")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the FastAPI "detail" field, serialized when structured.
	Detail string
	// Message is the "message" or "error" field, or the raw body.
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if msg := e.Text(); msg != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// Text returns the human-readable message carried by the response, if any.
func (e *APIError) Text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// Is reports 401 responses as ErrAuthExpired.
func (e *APIError) Is(target error) bool {
	return target == ErrAuthExpired && e.StatusCode == http.StatusUnauthorized
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrNetwork.Error(), e.Err)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports every NetworkError as ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ValidationError lists the fields that failed client-side validation.
type ValidationError struct {
	Fields  []string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid " + strings.Join(e.Fields, ", ")
}

// Is reports every ValidationError as ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{
		Fields:  fields,
		Message: "invalid birth details: " + strings.Join(fields, ", "),
	}
}

// Message returns a display string for err following the error taxonomy:
// network failures get a generic retry message, backend failures surface
// their own text or the supplied fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.Is(err, ErrNetwork):
		return ErrNetwork.Error()
	case errors.As(err, &apiErr):
		if text := apiErr.Text(); text != "" {
			return text
		}
	}
	return fallback
}
