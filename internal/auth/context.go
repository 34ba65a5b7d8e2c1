package auth

import (
	"context"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

// Identity is the authenticated caller of one request. Role is derived per
// request and never persisted.
type Identity struct {
	UserID   int64
	Username string
	Role     domain.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RoleFor maps a username to its role. Exactly one username, the configured
// admin, holds the privileged role.
func RoleFor(username, adminUsername string) domain.Role {
	if adminUsername != "" && username == adminUsername {
		return domain.RoleAdmin
	}
	return domain.RoleCustomer
}
