// Package failure defines the client's error taxonomy.
//
// Errors are tagged with one of the sentinel markers below and classified
// with errors.Is. Callers never compare error strings.
package failure

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrAuth       = errors.New("not authenticated")
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("transport error")
	ErrStatus     = errors.New("unexpected api status")
	ErrNotFound   = errors.New("not found")
	ErrRemoteJob  = errors.New("remote job failed")
	ErrMutation   = errors.New("mutation failed")
)

// Kind is a coarse classification used for logging and UI messages.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindRemoteJob  Kind = "remote_job"
	KindMutation   Kind = "mutation"
	KindUnknown    Kind = "unknown"
)

// Wrap builds an error carrying component and operation context, tagged with
// marker for later classification. A nil marker defaults to ErrTransport.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Validation is shorthand for a validation failure with no underlying cause.
func Validation(component, operation, message string) error {
	return Wrap(ErrValidation, component, operation, message, nil)
}

// KindOf classifies err. Mutation and remote-job markers win over the
// transport marker they usually wrap.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMutation):
		return KindMutation
	case errors.Is(err, ErrRemoteJob):
		return KindRemoteJob
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// MarkerOf returns the sentinel that classifies err, or nil when err carries
// none. Used to re-wrap an error without losing its classification.
func MarkerOf(err error) error {
	for _, marker := range []error{ErrValidation, ErrMutation, ErrRemoteJob, ErrAuth, ErrNotFound, ErrTransport, ErrStatus} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// IsRetryable reports whether err is a connectivity problem that the next
// scheduled attempt may resolve. Auth and validation failures never are.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrAuth) || errors.Is(err, ErrValidation) {
		return false
	}
	return errors.Is(err, ErrTransport)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	// Message is the server's error text, when it sent one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
}

// Is maps HTTP status codes onto the taxonomy so callers can use errors.Is.
// Client errors other than auth, not-found and throttling are validation
// failures.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrStatus:
		return true
	case ErrAuth:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrValidation:
		return e.Code >= 400 && e.Code < 500 && !e.retryableClientCode() &&
			e.Code != http.StatusUnauthorized && e.Code != http.StatusForbidden && e.Code != http.StatusNotFound
	case ErrTransport:
		return e.Code >= 500 || e.retryableClientCode()
	}
	return false
}

func (e *StatusError) retryableClientCode() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "client failure"
	}
	return strings.Join(parts, ": ")
}
