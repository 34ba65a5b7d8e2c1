package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Operation requires administrator privileges"}
	ErrTooManyAttempts    = &AppError{http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many login attempts, try again later"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrStorageUnavailable = &AppError{http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Ledger storage is temporarily unavailable, nothing was changed"}

	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero with at most two decimal places"}
	ErrBalanceLimit       = &AppError{http.StatusUnprocessableEntity, "BALANCE_LIMIT_EXCEEDED", "Resulting balance exceeds the maximum an account can hold"}
	ErrInvalidAccountType = &AppError{http.StatusBadRequest, "INVALID_ACCOUNT_TYPE", "Account type must be savings, checking, or term"}
	ErrSameAccount        = &AppError{http.StatusUnprocessableEntity, "SAME_ACCOUNT", "Cannot transfer to the same account"}
	ErrAccountNotFound    = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrTargetNotFound     = &AppError{http.StatusUnprocessableEntity, "TARGET_NOT_FOUND", "Target account not found"}
	ErrUserNotFound       = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrInsufficientFunds  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAccountFrozen      = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_FROZEN", "Account is frozen"}
	ErrSourceFrozen       = &AppError{http.StatusUnprocessableEntity, "SOURCE_FROZEN", "Source account is frozen"}
	ErrTargetFrozen       = &AppError{http.StatusUnprocessableEntity, "TARGET_FROZEN", "Target account is frozen"}
	ErrDuplicateType      = &AppError{http.StatusConflict, "DUPLICATE_ACCOUNT_TYPE", "An account of this type already exists for this user"}
	ErrUsernameTaken      = &AppError{http.StatusConflict, "USERNAME_TAKEN", "Username is already taken"}
	ErrNonZeroBalance     = &AppError{http.StatusConflict, "NON_ZERO_BALANCE", "Account balance must be zero before closing"}
	ErrUserHasAccounts    = &AppError{http.StatusConflict, "USER_HAS_ACCOUNTS", "User still holds accounts"}
	ErrConflict           = &AppError{http.StatusConflict, "CONFLICT", "Request conflicts with current state, please retry"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed, retry later"}
)
