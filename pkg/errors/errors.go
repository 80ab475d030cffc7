package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones still match
// their predefined sentinel.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrAlreadyDecided     = New("ALREADY_DECIDED", http.StatusConflict, "request already decided")
	ErrDuplicatePending   = New("DUPLICATE_PENDING", http.StatusConflict, "a pending request of this kind already exists")
	ErrCooldownActive     = New("COOLDOWN_ACTIVE", http.StatusTooManyRequests, "probation period has not elapsed")
	ErrInsufficientAuth   = New("INSUFFICIENT_AUTHORITY", http.StatusForbidden, "cannot assign a rank equal to or above your own")
	ErrImmutableAdmin     = New("IMMUTABLE_ADMIN", http.StatusForbidden, "administrator rank and role cannot be changed")
	ErrDirectorRestricted = New("DIRECTOR_ASSIGNMENT_RESTRICTED", http.StatusForbidden, "only an administrator can assign the director")
	ErrDeputyRestricted   = New("DEPUTY_ASSIGNMENT_RESTRICTED", http.StatusForbidden, "only the director or an administrator can assign a deputy director")
)

// CooldownActive builds a cooldown error carrying the remaining whole hours.
func CooldownActive(remainingHours int) *Error {
	err := Clone(ErrCooldownActive, fmt.Sprintf("probation period has not elapsed, about %d hours remaining", remainingHours))
	err.Meta = map[string]interface{}{"remainingHours": remainingHours}
	return err
}

// RemainingHours extracts the remaining hour count from a cooldown error.
func RemainingHours(err error) (int, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCooldownActive.Code || e.Meta == nil {
		return 0, false
	}
	hours, ok := e.Meta["remainingHours"].(int)
	return hours, ok
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Meta != nil {
		clone.Meta = make(map[string]interface{}, len(err.Meta))
		for k, v := range err.Meta {
			clone.Meta[k] = v
		}
	}
	return &clone
}
