package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrNotFound indicates the document does not exist
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the backend refused the operation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnavailable indicates a transient connectivity problem
	ErrUnavailable = errors.New("unavailable")

	// ErrClosed indicates the collection has been closed
	ErrClosed = errors.New("collection closed")
)

// Error codes reported to the UI, matching the codes hosted document
// databases use in their client SDKs.
const (
	CodeNotFound         = "not-found"
	CodePermissionDenied = "permission-denied"
	CodeUnavailable      = "unavailable"
	CodeCancelled        = "cancelled"
	CodeUnknown          = "unknown"
)

// StoreError represents a failed operation against a backend
type StoreError struct {
	Op      string
	Backend string
	ID      string
	Code    string
	Err     error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for StoreError
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrPermissionDenied:
		return e.Code == CodePermissionDenied
	case ErrUnavailable:
		return e.Code == CodeUnavailable
	}
	return false
}

// NewStoreError creates a new store error, deriving the code from err.
func NewStoreError(backend, op, id string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Backend: backend,
		ID:      id,
		Code:    codeOf(err),
		Err:     err,
	}
}

func codeOf(err error) string {
	var se *StoreError
	switch {
	case errors.As(err, &se) && se.Code != "":
		return se.Code
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	}
	return CodeUnknown
}

// IsTransient reports whether retrying the operation may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy") ||
		strings.Contains(message, "connection refused") ||
		strings.Contains(message, "i/o timeout")
}

// Describe returns a short human-readable message for err, suitable for an
// error view. Known failures are reported by their code.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if code := codeOf(err); code != CodeUnknown {
		return code
	}
	return err.Error()
}
