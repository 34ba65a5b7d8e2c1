package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// domainErrors is ordered most specific first: refinements such as
// ErrTargetFrozen also match their parent class.
var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrBalanceLimit, ErrBalanceLimit},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidAccountType, ErrInvalidAccountType},
	{domain.ErrSameAccount, ErrSameAccount},
	{domain.ErrInvalidInput, ErrInvalidRequest},
	{domain.ErrTargetNotFound, ErrTargetNotFound},
	{domain.ErrAccountNotFound, ErrAccountNotFound},
	{domain.ErrUserNotFound, ErrUserNotFound},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrSourceFrozen, ErrSourceFrozen},
	{domain.ErrTargetFrozen, ErrTargetFrozen},
	{domain.ErrAccountFrozen, ErrAccountFrozen},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrDuplicateType, ErrDuplicateType},
	{domain.ErrDuplicateUsername, ErrUsernameTaken},
	{domain.ErrNonZeroBalance, ErrNonZeroBalance},
	{domain.ErrUserHasAccounts, ErrUserHasAccounts},
	{domain.ErrConflict, ErrConflict},
	{domain.ErrForbidden, ErrForbidden},
	{domain.ErrInvalidCredentials, ErrInvalidCredentials},
	{domain.ErrStorageUnavailable, ErrStorageUnavailable},
}

func appErrorFor(err error) *AppError {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return nil
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := appErrorFor(err)
	if appErr == nil {
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}
	RespondAppError(w, appErr, nil)
}
