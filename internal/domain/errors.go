package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the ledger, the journal and the adapters.
// Callers classify failures with errors.Is; messages carry the detail.
var (
	// ErrValidation marks malformed or inconsistent input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference to a wallet or operation that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds marks a debit larger than the wallet's accrued balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict marks a request that clashes with existing state
	// (duplicate wallet name, wallet still referenced by operations).
	ErrConflict = errors.New("conflict")
)

// Validationf returns an error wrapping ErrValidation
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf returns an error wrapping ErrConflict
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
