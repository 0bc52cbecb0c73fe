package billing

import (
	"errors"
	"fmt"

	"billing-backend/models"
)

// ErrLinkNotFound covers both an unknown share token and a deactivated one.
// The two cases must be indistinguishable to the caller.
var ErrLinkNotFound = errors.New("share link not found")

// ValidationError is a pre-submit input problem: the request never reaches
// the document of record. Recoverable by fixing the input.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func Invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StateConflictError is an illegal lifecycle operation: the document has
// moved since the caller last saw it. The UI should refresh, not re-show
// the form.
type StateConflictError struct {
	Op      string                `json:"op"`
	Current models.DocumentStatus `json:"current_status"`
	Message string                `json:"message"`
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: %s (status %s)", e.Op, e.Message, e.Current)
}

func Conflictf(op string, current models.DocumentStatus, format string, args ...any) *StateConflictError {
	return &StateConflictError{Op: op, Current: current, Message: fmt.Sprintf(format, args...)}
}

// AuthError covers a wrong share-link password or an invalid session.
// A wrong password is recoverable (re-prompt); an expired session is not.
type AuthError struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

func (e *AuthError) Error() string { return e.Message }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStateConflict(err error) bool {
	var sc *StateConflictError
	return errors.As(err, &sc)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
