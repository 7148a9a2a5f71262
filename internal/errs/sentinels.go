// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/gateway/service/repository layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the record exists but belongs to another identity.
	ErrForbidden = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a failed sign-in (unknown email or wrong password).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailInUse indicates a unique constraint violation on the account email.
	ErrEmailInUse = errors.New("email already in use")

	// ErrWeakPassword indicates the password does not meet the minimal policy.
	ErrWeakPassword = errors.New("weak password")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a network/transport failure talking to the backend.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNotSignedIn indicates an operation that needs a session was called without one.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrValidation indicates a required field is empty or malformed.
	ErrValidation = errors.New("validation")

	// ErrUnknownAction indicates a dispatch with an unregistered action name.
	ErrUnknownAction = errors.New("unknown action")

	// ErrBadPayload indicates a dispatch payload of the wrong type.
	ErrBadPayload = errors.New("bad payload")
)
