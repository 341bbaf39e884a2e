package service

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed input field. Nothing
// is mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// ErrCheckoutInProgress is returned when another checkout for the same
// user holds the checkout lock. Retryable by resubmission.
var ErrCheckoutInProgress = errors.New("a checkout for this user is already in progress")

// ErrInvalidCredentials is returned on a failed login. The message is
// deliberately the same for unknown user and wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AsValidationError unwraps err into a *ValidationError when possible
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
