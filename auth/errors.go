package auth

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when an authenticated request is attempted
// with no stored session.
var ErrAuthRequired = errors.New("authentication required")

// AuthError is a login rejection from the auth server. The server-provided
// detail message is preferred; a generic message carries the status when the
// server sends none.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Login failed: %d", e.Status)
}

// VerifyError is a token verification rejection.
type VerifyError struct {
	Status int
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("Token verification failed: %d", e.Status)
}

// RefreshError is returned when the server rejects a refresh token or the
// refresh call cannot reach the server. Status is 0 for transport failures.
type RefreshError struct {
	Status int
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("Token refresh failed: %d", e.Status)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// SessionExpiredError is returned by the request client when a 401-triggered
// refresh itself fails. The stored tokens have been cleared by the time the
// caller sees this.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("Authentication expired: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from an API endpoint that is neither a
// login nor a refreshable 401.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("API Error: %d", e.Status)
}

// StorageError is a token store read or write failure.
type StorageError struct {
	Op  string // "read", "write" or "clear"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
