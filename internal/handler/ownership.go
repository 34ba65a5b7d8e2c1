package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

type accountGetter interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

type idValidator interface {
	Valid(id string) bool
}

// ownedAccount loads the account named by the {id} path parameter and checks
// the caller may act on it. Accounts owned by someone else are reported as
// not found so their existence does not leak. Admins may read any account.
func ownedAccount(r *http.Request, accounts accountGetter, ids idValidator) (*domain.Account, auth.Identity, *AppError) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, auth.Identity{}, ErrMissingToken
	}

	id := chi.URLParam(r, "id")
	if !ids.Valid(id) {
		return nil, identity, ErrAccountNotFound
	}

	account, err := accounts.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, identity, ErrAccountNotFound
		}
		if appErr := appErrorFor(err); appErr != nil {
			return nil, identity, appErr
		}
		return nil, identity, ErrInternalError
	}

	if account.UserID != identity.UserID && !identity.IsAdmin() {
		return nil, identity, ErrAccountNotFound
	}
	return account, identity, nil
}
