package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRequired ErrorCode = "AUTH-001"
	ErrCodeAuthExpired  ErrorCode = "AUTH-002"
	ErrCodeAuthFailed   ErrorCode = "AUTH-003"

	// Profile errors (PROFILE-001 to PROFILE-099)
	ErrCodeProfileNotSelected ErrorCode = "PROFILE-001"
	ErrCodeProfileNotFound    ErrorCode = "PROFILE-002"
	ErrCodeProfileSaveFailed  ErrorCode = "PROFILE-003"
	ErrCodeProfileNoLocation  ErrorCode = "PROFILE-004"

	// Chart errors (CHART-001 to CHART-099)
	ErrCodeChartFailed       ErrorCode = "CHART-001"
	ErrCodeChartRenderFailed ErrorCode = "CHART-002"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetUnavailable ErrorCode = "NET-001"
	ErrCodeNetBackend     ErrorCode = "NET-002"
	ErrCodeNetContract    ErrorCode = "NET-003"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInputInvalid  ErrorCode = "INPUT-001"
	ErrCodeInputRequired ErrorCode = "INPUT-002"

	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigWrite   ErrorCode = "CONFIG-002"
)

// Category returns the prefix of the code ("AUTH", "NET", ...).
func (c ErrorCode) Category() string {
	category, _, _ := strings.Cut(string(c), "-")
	return category
}

// VedicError represents an enhanced error with code, suggestions, and documentation
type VedicError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *VedicError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *VedicError) Unwrap() error {
	return e.Cause
}

// New creates a new VedicError
func New(code ErrorCode, message string) *VedicError {
	return &VedicError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new VedicError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *VedicError {
	return &VedicError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *VedicError) WithSuggestion(suggestion string) *VedicError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *VedicError) WithSuggestions(suggestions ...string) *VedicError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *VedicError) WithDocs(url string) *VedicError {
	e.DocsURL = url
	return e
}

// As finds the first VedicError in err's chain.
func As(err error) (*VedicError, bool) {
	var ve *VedicError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// HasCode reports whether err's chain holds a VedicError with the given code.
func HasCode(err error, code ErrorCode) bool {
	ve, ok := As(err)
	return ok && ve.Code == code
}

// Common error constructors used by the commands

// NewAuthRequiredError is returned when a command needs a session and there is none.
func NewAuthRequiredError() *VedicError {
	return New(ErrCodeAuthRequired, "not logged in").
		WithSuggestion("Run 'vedic auth login' to sign in").
		WithSuggestion("Run 'vedic auth register' to create an account")
}

// NewAuthExpiredError is returned when the backend rejected the stored token.
func NewAuthExpiredError(cause error) *VedicError {
	return Wrap(ErrCodeAuthExpired, "session expired", cause).
		WithSuggestion("Run 'vedic auth login' to sign in again")
}

// NewAuthFailedError carries the backend's login or registration message.
func NewAuthFailedError(message string) *VedicError {
	return New(ErrCodeAuthFailed, message).
		WithSuggestion("Check your username and password")
}

// NewProfileNotSelectedError is returned by commands that need a selected profile.
func NewProfileNotSelectedError() *VedicError {
	return New(ErrCodeProfileNotSelected, "no profile selected").
		WithSuggestion("Run 'vedic profile list' to see your profiles").
		WithSuggestion("Run 'vedic profile select <id>' to choose one")
}

// NewProfileNotFoundError is returned when an id matches no loaded profile.
func NewProfileNotFoundError(id string) *VedicError {
	return New(ErrCodeProfileNotFound, fmt.Sprintf("profile not found: %s", id)).
		WithSuggestion("Run 'vedic profile list' to see valid profile ids")
}

// NewProfileNoLocationError is returned when a profile form lacks coordinates.
func NewProfileNoLocationError() *VedicError {
	return New(ErrCodeProfileNoLocation, "birth location has not been resolved").
		WithSuggestion("Search the birth place first: 'vedic location search <place>'").
		WithSuggestion("Pass --place so latitude, longitude and timezone are filled together")
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(baseURL string, cause error) *VedicError {
	return Wrap(ErrCodeNetUnavailable, "network error, please try again", cause).
		WithSuggestion(fmt.Sprintf("Check that the backend is reachable at %s", baseURL)).
		WithSuggestion("Set VEDIC_API_URL or --api-url if the backend runs elsewhere").
		WithSuggestion("Run 'vedic doctor' to diagnose connectivity")
}

// NewBackendError surfaces the backend's own message.
func NewBackendError(message string, cause error) *VedicError {
	return Wrap(ErrCodeNetBackend, message, cause)
}

// NewInputInvalidError reports a bad flag or argument value.
func NewInputInvalidError(what string, expected string) *VedicError {
	return New(ErrCodeInputInvalid, fmt.Sprintf("invalid %s", what)).
		WithSuggestion(fmt.Sprintf("Expected: %s", expected))
}

// NewConfigInvalidError reports an unreadable configuration file.
func NewConfigInvalidError(path string, cause error) *VedicError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("failed to read configuration: %s", path), cause).
		WithSuggestion("Check the YAML syntax of the configuration file").
		WithSuggestion("Run 'vedic config path' to see which file is used")
}
