package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

// Sentinels matched through APIError.Unwrap.
var (
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("model or endpoint not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrBadRequest   = errors.New("bad request")
	ErrServerError  = errors.New("provider server error")
	ErrNetwork      = errors.New("network failure")
)

// ConfigError reports a missing credential for the resolved provider.
type ConfigError struct {
	Provider models.Provider
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("API key for %s is not configured", e.Provider)
}

// APIError is the only error shape Invoke returns for provider failures.
// StatusCode is zero when the request never produced an HTTP response.
type APIError struct {
	Provider   models.Provider
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return "API Error: " + e.Message
}

// Unwrap exposes a status sentinel alongside the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := []error{}
	if s := statusSentinel(e.StatusCode); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Network reports whether the failure happened before any HTTP response.
func (e *APIError) Network() bool {
	return e.StatusCode == 0
}

func statusSentinel(code int) error {
	switch {
	case code == 0:
		return ErrNetwork
	case code == http.StatusBadRequest:
		return ErrBadRequest
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrServerError
	}
	return nil
}

func newAPIError(p models.Provider, status int, message string, cause error) *APIError {
	if message == "" {
		message = fmt.Sprintf("%s request failed", p)
		if status != 0 {
			message = fmt.Sprintf("%s request failed with status %d", p, status)
		}
	}
	return &APIError{Provider: p, StatusCode: status, Message: message, Err: cause}
}
