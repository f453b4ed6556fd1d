package session

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMalformedCredential = "session_malformed_credential"
	TextCodeCredentialExpired   = "session_credential_expired"
	TextCodeLoginFailed         = "session_login_failed"
	TextCodeRefreshUnauthorized = "session_refresh_unauthorized"
	TextCodeRefreshTransient    = "session_refresh_transient"
	TextCodeNoCredential        = "session_no_credential"
	TextCodeStorageFailure      = "session_storage_failure"
)

// ErrMalformedCredential is returned when a raw credential cannot be
// structurally decoded (wrong segment count, bad base64, bad JSON, or
// missing required claims).
var ErrMalformedCredential = errors.New("malformed credential", errors.CategoryAuth).
	WithTextCode(TextCodeMalformedCredential).
	WithCode(errors.CodeUnauthorized)

// ErrCredentialExpired is returned at boundaries that must report an
// expired credential as an error. Expiry is primarily a Freshness
// state, not an error.
var ErrCredentialExpired = errors.New("credential expired", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialExpired).
	WithCode(errors.CodeUnauthorized)

// ErrLoginFailed is returned when the backend rejects a login attempt.
var ErrLoginFailed = errors.New("login rejected", errors.CategoryAuth).
	WithTextCode(TextCodeLoginFailed).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshUnauthorized is returned when credential renewal itself is
// rejected. This is terminal for the session: the coordinator clears
// state and the caller must re-authenticate.
var ErrRefreshUnauthorized = errors.New("credential renewal rejected", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTransient is returned for network or server failures during
// renewal. The existing session is left untouched so callers can retry.
var ErrRefreshTransient = errors.New("credential renewal failed", errors.CategoryOperation).
	WithTextCode(TextCodeRefreshTransient).
	WithCode(errors.CodeInternal)

// ErrNoCredential is returned when an operation requires a current
// credential and none is held.
var ErrNoCredential = errors.New("no credential held", errors.CategoryAuth).
	WithTextCode(TextCodeNoCredential).
	WithCode(errors.CodeUnauthorized)

// ErrStorageFailure wraps durable storage read/write failures.
var ErrStorageFailure = errors.New("credential storage failure", errors.CategoryInternal).
	WithTextCode(TextCodeStorageFailure).
	WithCode(errors.CodeInternal)

// IsMalformedCredentialError checks for structural decode failures.
func IsMalformedCredentialError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeMalformedCredential
	}

	return strings.Contains(err.Error(), "malformed credential")
}

// IsRefreshUnauthorizedError checks whether renewal was terminally rejected.
func IsRefreshUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeRefreshUnauthorized
	}

	return false
}

// IsTransientRefreshError checks for recoverable renewal failures.
func IsTransientRefreshError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeRefreshTransient
	}

	return false
}
