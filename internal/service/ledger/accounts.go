package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/events"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

// OpenAccount creates a zero-balance active account. Identifier collisions
// are retried with a fresh identifier up to MaxIDAttempts times.
func (s *Service) OpenAccount(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("OpenAccount: %q: %w", accountType, domain.ErrInvalidAccountType)
	}

	var account *domain.Account
	err := s.execute(ctx, "open_account", func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return err
		}

		_, err := s.accounts.GetByUserAndType(ctx, userID, accountType)
		if err == nil {
			return domain.ErrDuplicateType
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check existing: %w", err)
		}

		account, err = s.createWithRetry(ctx, userID, accountType)
		if err != nil {
			return err
		}

		s.publish(ctx, events.ForAccount(events.KindAccountOpened, account))
		logging.FromContext(ctx).Info("account opened",
			"account_id", account.ID,
			"user_id", userID,
			"account_type", accountType,
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}
	return account, nil
}

func (s *Service) createWithRetry(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	for attempt := 1; attempt <= s.cfg.MaxIDAttempts; attempt++ {
		id, err := s.ids.Generate()
		if err != nil {
			return nil, fmt.Errorf("createWithRetry: %w", err)
		}

		account := &domain.Account{ID: id, UserID: userID, AccountType: accountType}
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			return s.accounts.Create(ctx, tx, account)
		})
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		log.Warn("account id collision, regenerating", "account_id", id, "attempt", attempt)
	}

	return nil, fmt.Errorf("createWithRetry: no free account id after %d attempts: %w",
		s.cfg.MaxIDAttempts, domain.ErrStorageUnavailable)
}

// CloseAccount deletes an active zero-balance account. Its transaction
// history is kept.
func (s *Service) CloseAccount(ctx context.Context, accountID string) error {
	if err := requireAccountID(accountID); err != nil {
		return fmt.Errorf("CloseAccount: %w", err)
	}

	err := s.execute(ctx, "close_account", func(ctx context.Context) error {
		var closed *domain.Account
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
			if err != nil {
				return err
			}
			if account.IsFrozen() {
				return domain.ErrAccountFrozen
			}
			if err := s.accounts.Delete(ctx, tx, accountID); err != nil {
				return err
			}
			closed = account
			return nil
		})
		if err != nil {
			return err
		}

		s.publish(ctx, events.ForAccount(events.KindAccountClosed, closed))
		logging.FromContext(ctx).Info("account closed", "account_id", accountID, "user_id", closed.UserID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("CloseAccount: %w", err)
	}
	return nil
}

// Freeze is idempotent: freezing a frozen account succeeds and changes nothing.
func (s *Service) Freeze(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.setStatus(ctx, "freeze", accountID, domain.AccountStatusFrozen, events.KindAccountFrozen)
	if err != nil {
		return nil, fmt.Errorf("Freeze: %w", err)
	}
	return account, nil
}

// Unfreeze is idempotent: unfreezing an active account succeeds and changes nothing.
func (s *Service) Unfreeze(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.setStatus(ctx, "unfreeze", accountID, domain.AccountStatusActive, events.KindAccountUnfrozen)
	if err != nil {
		return nil, fmt.Errorf("Unfreeze: %w", err)
	}
	return account, nil
}

func (s *Service) setStatus(ctx context.Context, op, accountID string, status domain.AccountStatus, kind string) (*domain.Account, error) {
	if err := requireAccountID(accountID); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.execute(ctx, op, func(ctx context.Context) error {
		var err error
		account, err = s.accounts.SetStatus(ctx, accountID, status)
		if err != nil {
			return err
		}
		s.publish(ctx, events.ForAccount(kind, account))
		logging.FromContext(ctx).Info("account status set", "account_id", accountID, "status", status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteUser removes a user that holds no accounts. The user row is locked
// while accounts are counted so a concurrent OpenAccount cannot slip in.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	err := s.execute(ctx, "delete_user", func(ctx context.Context) error {
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			u, err := s.users.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if s.cfg.AdminUsername != "" && u.Username == s.cfg.AdminUsername {
				return fmt.Errorf("administrator cannot be deleted: %w", domain.ErrForbidden)
			}
			n, err := s.accounts.CountByUserID(ctx, tx, userID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%d accounts: %w", n, domain.ErrUserHasAccounts)
			}
			return s.users.Delete(ctx, tx, userID)
		})
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("user deleted", "user_id", userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return nil
}
