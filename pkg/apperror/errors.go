package apperror

import (
	"errors"
	"net/http"
)

// Sentinels classify failures; wrap them with fmt.Errorf("...: %w") or New.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUnavailable       = errors.New("service unavailable")
)

// checked in order, first match wins
var statusBySentinel = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrConflict, http.StatusConflict},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrRateLimitExceeded, http.StatusTooManyRequests},
	{ErrUnavailable, http.StatusServiceUnavailable},
}

// AppError carries a user-facing message and an explicit status alongside
// the sentinel it wraps.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// Error prefers the user-facing message.
func (e *AppError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return http.StatusText(e.Code)
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// MapErrorToStatus picks the HTTP status for err: an AppError's own code,
// then the first wrapped sentinel, then 500.
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
