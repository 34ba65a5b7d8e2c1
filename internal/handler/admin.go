package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

type adminLedger interface {
	ListAllAccounts(ctx context.Context) ([]domain.AccountSummary, error)
	History(ctx context.Context, accountID string, viewer domain.Role) ([]domain.TransactionView, error)
	Freeze(ctx context.Context, accountID string) (*domain.Account, error)
	Unfreeze(ctx context.Context, accountID string) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountID string) error
	DeleteUser(ctx context.Context, userID int64) error
}

type userLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// AdminHandler serves the routes mounted behind the admin role check.
type AdminHandler struct {
	ledger adminLedger
	users  userLister
	ids    idValidator
}

func NewAdminHandler(ledger adminLedger, users userLister, ids idValidator) *AdminHandler {
	return &AdminHandler{ledger: ledger, users: users, ids: ids}
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.ledger.ListAllAccounts(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSummaryDTOs(summaries))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]userDTO, len(users))
	for i := range users {
		out[i] = toUserDTO(&users[i])
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	views, err := h.ledger.History(r.Context(), "", domain.RoleAdmin)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionViewDTOs(views))
}

func (h *AdminHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "account frozen", h.ledger.Freeze)
}

func (h *AdminHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, "account unfrozen", h.ledger.Unfreeze)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request, msg string, apply func(context.Context, string) (*domain.Account, error)) {
	id := chi.URLParam(r, "id")
	if !h.ids.Valid(id) {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	account, err := apply(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info(msg, "account_id", account.ID)
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AdminHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ids.Valid(id) {
		RespondAppError(w, ErrAccountNotFound, nil)
		return
	}

	if err := h.ledger.CloseAccount(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info("account closed", "account_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	if err := h.ledger.DeleteUser(r.Context(), userID); err != nil {
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info("user deleted", "deleted_user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
