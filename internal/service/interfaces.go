package service

import (
	"context"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

type userRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
