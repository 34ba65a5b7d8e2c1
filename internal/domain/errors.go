package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("identifier conflict")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountFrozen      = errors.New("account frozen")
	ErrDuplicateType      = errors.New("owner already holds an account of this type")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrNonZeroBalance     = errors.New("account balance is not zero")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUserHasAccounts    = errors.New("user still holds accounts")
	ErrForbidden          = errors.New("operation requires the privileged role")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Refinements. Each one matches its parent through errors.Is so callers can
// branch on either the specific case or the taxonomy class.
var (
	ErrInvalidAmount      = fmt.Errorf("amount must be greater than zero: %w", ErrInvalidInput)
	ErrInvalidAccountType = fmt.Errorf("unknown account type: %w", ErrInvalidInput)
	ErrSameAccount        = fmt.Errorf("cannot transfer to same account: %w", ErrInvalidInput)
	ErrBalanceLimit       = fmt.Errorf("balance would exceed the maximum: %w", ErrInvalidAmount)

	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrTargetNotFound  = fmt.Errorf("target %w", ErrAccountNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrSourceFrozen = fmt.Errorf("source %w", ErrAccountFrozen)
	ErrTargetFrozen = fmt.Errorf("target %w", ErrAccountFrozen)
)

var businessErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrConflict,
	ErrInsufficientFunds,
	ErrAccountFrozen,
	ErrDuplicateType,
	ErrDuplicateUsername,
	ErrNonZeroBalance,
	ErrStorageUnavailable,
	ErrUserHasAccounts,
	ErrForbidden,
	ErrInvalidCredentials,
}

// IsBusinessError reports whether err already carries a taxonomy class.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
