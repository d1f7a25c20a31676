package session

import (
	"errors"
	"fmt"
)

// Kind discriminates auth/session error classes. It is assigned once, at the
// boundary where the underlying error is produced, so callers branch on the
// kind rather than on message contents.
type Kind int

const (
	KindUnknown Kind = iota
	KindTokenExpired
	KindInvalidCredentials
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

// AuthError wraps an underlying error with a Kind.
type AuthError struct {
	Kind Kind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewError wraps err with the given kind.
func NewError(kind Kind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// Errorf wraps a formatted message with the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *AuthError {
	return &AuthError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind carried by err, or KindUnknown when err carries
// none. A nil error has no kind and also reports KindUnknown.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsTokenExpired reports whether err classifies as an expired token.
func IsTokenExpired(err error) bool {
	return KindOf(err) == KindTokenExpired
}
