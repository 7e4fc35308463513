package auth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies credential failures so callers can render an
// actionable message without string matching.
type ErrorKind string

const (
	// KindNotAuthorized indicates no credential was ever stored for the
	// account key; the user must run the authorization flow.
	KindNotAuthorized ErrorKind = "not_authorized"
	// KindNoCredential indicates a refresh was requested for a key with no
	// stored record.
	KindNoCredential ErrorKind = "no_credential"
	// KindRefreshFailed indicates a refresh-token exchange failed; the
	// credential may be revoked, or the provider was unreachable.
	KindRefreshFailed ErrorKind = "refresh_failed"
	// KindExchangeFailed indicates an authorization-code exchange failed;
	// the user must restart the authorization flow.
	KindExchangeFailed ErrorKind = "exchange_failed"
	// KindUnknownState indicates an authorization callback carried a state
	// this process never issued, or one that was already consumed.
	KindUnknownState ErrorKind = "unknown_state"
)

// Error carries a failure kind, a message, and an optional upstream HTTP
// status code preserved for diagnostics.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %v (status %v)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind == kind
	}
	return false
}
