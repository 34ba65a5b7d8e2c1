package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

// GetBalance reports 0 for an account that does not exist.
func (s *Service) GetBalance(ctx context.Context, accountID string) (domain.Money, error) {
	var balance domain.Money
	err := s.execute(ctx, "get_balance", func(ctx context.Context) error {
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	return balance, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := requireAccountID(accountID); err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	var account *domain.Account
	err := s.execute(ctx, "get_account", func(ctx context.Context) error {
		var err error
		account, err = s.accounts.GetByID(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.execute(ctx, "list_accounts", func(ctx context.Context) error {
		var err error
		accounts, err = s.accounts.GetByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) ListAllAccounts(ctx context.Context) ([]domain.AccountSummary, error) {
	var accounts []domain.AccountSummary
	err := s.execute(ctx, "list_all_accounts", func(ctx context.Context) error {
		var err error
		accounts, err = s.accounts.ListWithOwner(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ListAllAccounts: %w", err)
	}
	return accounts, nil
}

// History returns the account's own records, newest first, for a customer.
// An admin viewer gets every record of every account joined with its
// owner, and accountID is ignored.
func (s *Service) History(ctx context.Context, accountID string, viewer domain.Role) ([]domain.TransactionView, error) {
	var views []domain.TransactionView
	err := s.execute(ctx, "history", func(ctx context.Context) error {
		if viewer == domain.RoleAdmin {
			var err error
			views, err = s.log.ListAll(ctx)
			return err
		}

		if err := requireAccountID(accountID); err != nil {
			return err
		}
		records, err := s.log.ListByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		views = make([]domain.TransactionView, len(records))
		for i, r := range records {
			views[i] = domain.TransactionView{Transaction: r}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return views, nil
}
