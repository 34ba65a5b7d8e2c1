package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/service/ledger"
)

type accountService interface {
	accountGetter
	OpenAccount(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]domain.Account, error)
	GetBalance(ctx context.Context, accountID string) (domain.Money, error)
	History(ctx context.Context, accountID string, viewer domain.Role) ([]domain.TransactionView, error)
	Deposit(ctx context.Context, accountID string, amount domain.Money) (*ledger.Receipt, error)
	Withdraw(ctx context.Context, accountID string, amount domain.Money) (*ledger.Receipt, error)
	Transfer(ctx context.Context, fromID, toID string, amount domain.Money) (*ledger.Receipt, error)
}

type AccountHandler struct {
	ledger accountService
	ids    idValidator
}

func NewAccountHandler(ledger accountService, ids idValidator) *AccountHandler {
	return &AccountHandler{ledger: ledger, ids: ids}
}

type openAccountRequest struct {
	AccountType domain.AccountType `json:"account_type" validate:"required,oneof=savings checking term"`
}

type amountRequest struct {
	Amount domain.Money `json:"amount" validate:"required,gt=0"`
}

type transferRequest struct {
	ToAccountID string       `json:"to_account_id" validate:"required"`
	Amount      domain.Money `json:"amount" validate:"required,gt=0"`
}

type balanceResponse struct {
	AccountID string       `json:"account_id"`
	Balance   domain.Money `json:"balance"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accounts, err := h.ledger.ListAccounts(r.Context(), identity.UserID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTOs(accounts))
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req openAccountRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.ledger.OpenAccount(r.Context(), identity.UserID, req.AccountType)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, _, appErr := ownedAccount(r, h.ledger, h.ids)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	account, _, appErr := ownedAccount(r, h.ledger, h.ids)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	balance, err := h.ledger.GetBalance(r.Context(), account.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, balanceResponse{AccountID: account.ID, Balance: balance})
}

// Transactions returns the account's history. An admin caller gets the
// whole log across all accounts.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	account, identity, appErr := ownedAccount(r, h.ledger, h.ids)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	views, err := h.ledger.History(r.Context(), account.ID, identity.Role)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionViewDTOs(views))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.ledger.Deposit)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.ledger.Withdraw)
}

func (h *AccountHandler) applyAmount(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, domain.Money) (*ledger.Receipt, error)) {
	account, identity, appErr := ownedAccount(r, h.ledger, h.ids)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if account.UserID != identity.UserID {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	var req amountRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondAppError(w, ErrInvalidAmount, fields)
		return
	}

	receipt, err := apply(r.Context(), account.ID, req.Amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toReceiptDTO(receipt))
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	account, identity, appErr := ownedAccount(r, h.ledger, h.ids)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if account.UserID != identity.UserID {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	var req transferRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !h.ids.Valid(req.ToAccountID) {
		RespondAppError(w, ErrTargetNotFound, nil)
		return
	}

	receipt, err := h.ledger.Transfer(r.Context(), account.ID, req.ToAccountID, req.Amount)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toReceiptDTO(receipt))
}
