package services

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. Callers branch on these with errors.Is; none of them are
// retried automatically.
var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidPackage      = errors.New("invalid package")
	ErrIncompleteProfile   = errors.New("incomplete profile")
	ErrNotInReview         = errors.New("application not in review")
	ErrAlreadyRefunded     = errors.New("transaction already refunded")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account inactive")
	ErrInvalidTransition   = errors.New("invalid application transition")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidTarget       = errors.New("invalid unlock target")
	ErrNotUnlocked         = errors.New("contact not unlocked")
	ErrApplicationNotFound = errors.New("application not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidRequest      = errors.New("invalid request")
)

// IncompleteProfileError lists the required profile fields that were empty
// when the teacher tried to submit.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("incomplete profile: missing %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteProfileError) Unwrap() error {
	return ErrIncompleteProfile
}

// ErrorCode returns the stable machine-readable code for a domain error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ErrInvalidPackage):
		return "invalid_package"
	case errors.Is(err, ErrIncompleteProfile):
		return "incomplete_profile"
	case errors.Is(err, ErrNotInReview):
		return "not_in_review"
	case errors.Is(err, ErrAlreadyRefunded):
		return "already_refunded"
	case errors.Is(err, ErrTransactionNotFound):
		return "transaction_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrNotUnlocked):
		return "not_unlocked"
	case errors.Is(err, ErrApplicationNotFound):
		return "application_not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	}
	return "internal"
}
