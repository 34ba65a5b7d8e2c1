package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/events"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

// Transfer moves amount from one account to another and appends a
// transfer_out record on the source and a transfer_in record on the target.
// Both accounts are locked before any check so the pair is consistent for
// the whole transaction.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount domain.Money) (*Receipt, error) {
	if err := requireAccountID(fromID); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if err := requireAccountID(toID); err != nil {
		return nil, fmt.Errorf("Transfer: target: %w", err)
	}
	if err := requirePositive(amount); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if fromID == toID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSameAccount)
	}

	var receipt *Receipt
	err := s.execute(ctx, "transfer", func(ctx context.Context) error {
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			var err error
			receipt, err = s.executeTransfer(ctx, tx, fromID, toID, amount)
			return err
		})
		if err != nil {
			return err
		}

		out, in := receipt.Records[0], receipt.Records[1]
		s.publish(ctx,
			events.FromTransaction(out, receipt.Account.Balance),
			events.FromTransaction(in, receipt.Counterparty.Balance),
		)
		logging.FromContext(ctx).Info("ledger transfer completed",
			"from_account", fromID,
			"to_account", toID,
			"amount", amount.String(),
			"from_balance", receipt.Account.Balance.String(),
			"to_balance", receipt.Counterparty.Balance.String(),
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	return receipt, nil
}

func (s *Service) executeTransfer(ctx context.Context, tx *sql.Tx, fromID, toID string, amount domain.Money) (*Receipt, error) {
	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, fromID, toID)
	if err != nil {
		var missing *missingAccountError
		if errors.As(err, &missing) && missing.id == toID {
			return nil, domain.ErrTargetNotFound
		}
		return nil, err
	}
	from, to := locked[fromID], locked[toID]

	if from.IsFrozen() {
		return nil, domain.ErrSourceFrozen
	}
	if to.IsFrozen() {
		return nil, domain.ErrTargetFrozen
	}
	if from.Balance < amount {
		return nil, domain.ErrInsufficientFunds
	}

	from, err = s.accounts.AdjustBalance(ctx, tx, fromID, -amount)
	if err != nil {
		return nil, fmt.Errorf("debit source: %w", err)
	}
	to, err = s.accounts.AdjustBalance(ctx, tx, toID, amount)
	if err != nil {
		return nil, fmt.Errorf("credit target: %w", err)
	}

	out := domain.Transaction{
		AccountID:             fromID,
		Type:                  domain.TransactionTypeTransferOut,
		Amount:                amount,
		CounterpartyAccountID: &toID,
		Description:           "transfer out",
	}
	if err := s.log.Append(ctx, tx, &out); err != nil {
		return nil, fmt.Errorf("append transfer_out: %w", err)
	}

	in := domain.Transaction{
		AccountID:             toID,
		Type:                  domain.TransactionTypeTransferIn,
		Amount:                amount,
		CounterpartyAccountID: &fromID,
		Description:           "transfer in",
	}
	if err := s.log.Append(ctx, tx, &in); err != nil {
		return nil, fmt.Errorf("append transfer_in: %w", err)
	}

	return &Receipt{Account: from, Counterparty: to, Records: []domain.Transaction{out, in}}, nil
}

type missingAccountError struct {
	id string
}

func (e *missingAccountError) Error() string { return "account " + e.id + " not found" }

func (e *missingAccountError) Unwrap() error { return domain.ErrAccountNotFound }

// lockAccountsInOrder takes row locks in lexicographic id order so two
// transfers over the same pair in opposite directions cannot deadlock.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountStore, ids ...string) (map[string]*domain.Account, error) {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	result := make(map[string]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lockAccountsInOrder: %w", &missingAccountError{id: id})
			}
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
