package errs

import "errors"

// ValidationError carries a user-facing validation message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is reports ErrValidation as the sentinel of every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a ValidationError with the given message.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// messages maps sentinels to the text shown to users.
var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidCredentials, "Invalid email or password"},
	{ErrEmailInUse, "Email is already in use"},
	{ErrWeakPassword, "Password must be at least 6 characters"},
	{ErrForbidden, "Unauthorized"},
	{ErrNotFound, "Record not found"},
	{ErrRateLimited, "Too many attempts, try again later"},
	{ErrUnavailable, "Network error, please try again"},
	{ErrNotSignedIn, "User not authenticated"},
}

// Message converts an error into a human-readable message for state error fields.
// Validation errors keep their own text; unknown errors fall back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
