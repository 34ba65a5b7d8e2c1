package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/events"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

func (s *Service) Deposit(ctx context.Context, accountID string, amount domain.Money) (*Receipt, error) {
	receipt, err := s.applySingle(ctx, "deposit", accountID, amount, domain.TransactionTypeDeposit)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	return receipt, nil
}

// Withdraw checks funds and decrements in one conditional write, so two
// concurrent withdrawals can never both pass the check.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount domain.Money) (*Receipt, error) {
	receipt, err := s.applySingle(ctx, "withdraw", accountID, amount, domain.TransactionTypeWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	return receipt, nil
}

func (s *Service) applySingle(ctx context.Context, op, accountID string, amount domain.Money, kind domain.TransactionType) (*Receipt, error) {
	if err := requireAccountID(accountID); err != nil {
		return nil, err
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}

	delta, description := amount, "deposit"
	if kind == domain.TransactionTypeWithdrawal {
		delta, description = -amount, "withdrawal"
	}

	var receipt *Receipt
	err := s.execute(ctx, op, func(ctx context.Context) error {
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			account, err := s.accounts.AdjustBalance(ctx, tx, accountID, delta)
			if err != nil {
				return err
			}

			rec := domain.Transaction{
				AccountID:   accountID,
				Type:        kind,
				Amount:      amount,
				Description: description,
			}
			if err := s.log.Append(ctx, tx, &rec); err != nil {
				return err
			}

			receipt = &Receipt{Account: account, Records: []domain.Transaction{rec}}
			return nil
		})
		if err != nil {
			return err
		}

		s.publish(ctx, events.FromTransaction(receipt.Records[0], receipt.Account.Balance))
		logging.FromContext(ctx).Info("ledger "+op+" completed",
			"account_id", accountID,
			"amount", amount.String(),
			"balance", receipt.Account.Balance.String(),
			"transaction_id", receipt.Records[0].ID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
