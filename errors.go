package cloudindex

import (
	"errors"
)

var (
	ErrAuth          = errors.New("authentication error")
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrAPIError      = errors.New("api error")
	ErrIOError       = errors.New("io error")
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidPath   = errors.New("invalid path")
	ErrAmbiguousPath = errors.New("ambiguous path")
)

type wrapError struct {
	underlying error
	msg        string
	cause      error
}

var _ error = (*wrapError)(nil)

// NewAuthError wraps cause as an ErrAuth (expired, revoked or missing credential).
func NewAuthError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrAuth,
		msg:        msg,
		cause:      cause,
	}
}

// NewNotFoundError wraps cause as an ErrNotFound (missing or inaccessible identifier).
func NewNotFoundError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrNotFound,
		msg:        msg,
		cause:      cause,
	}
}

// NewRateLimitError wraps cause as an ErrRateLimited (vendor throttling).
func NewRateLimitError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrRateLimited,
		msg:        msg,
		cause:      cause,
	}
}

// NewAPIError wraps cause as an ErrAPIError (any other vendor failure).
func NewAPIError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrAPIError,
		msg:        msg,
		cause:      cause,
	}
}

// NewIOError wraps cause as an ErrIOError (local read/write failure).
func NewIOError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrIOError,
		msg:        msg,
		cause:      cause,
	}
}

// NewInvalidConfigError wraps cause as an ErrInvalidConfig (bad or missing
// configuration, caught before any vendor call).
func NewInvalidConfigError(msg string, cause error) error {
	return &wrapError{
		underlying: ErrInvalidConfig,
		msg:        msg,
		cause:      cause,
	}
}

func (err *wrapError) Error() string {
	if err == nil {
		return "(*wrapError)(nil)"
	}
	message := err.underlying.Error() + ": " + err.msg
	if err.cause != nil {
		message += ": " + err.cause.Error()
	}
	return message
}

func (err *wrapError) Unwrap() []error {
	if err.cause == nil {
		return []error{err.underlying}
	}
	return []error{err.underlying, err.cause}
}
