package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const transactionColumns = `transaction_id, account_id, type, amount,
	counterparty_account_id, description, occurred_at`

// TransactionRepository is the append-only transaction log. It exposes no
// update or delete.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append stores rec and fills in its store-assigned id and timestamp.
func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, rec *domain.Transaction) error {
	if !rec.Type.IsValid() {
		return fmt.Errorf("Append: type %q: %w", rec.Type, domain.ErrInvalidInput)
	}
	if !rec.Amount.IsPositive() {
		return fmt.Errorf("Append: %w", domain.ErrInvalidAmount)
	}
	err := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (account_id, type, amount, counterparty_account_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING transaction_id, occurred_at`,
		rec.AccountID, rec.Type, rec.Amount, rec.CounterpartyAccountID, rec.Description,
	).Scan(&rec.ID, &rec.OccurredAt)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY occurred_at DESC, transaction_id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return out, nil
}

// ListAll returns the whole log, newest first, with the owning username of
// each record's account. Records of closed accounts have no owner.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]domain.TransactionView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.transaction_id, t.account_id, t.type, t.amount,
			t.counterparty_account_id, t.description, t.occurred_at, u.username
		FROM transactions t
		LEFT JOIN accounts a ON a.account_id = t.account_id
		LEFT JOIN users u ON u.user_id = a.user_id
		ORDER BY t.occurred_at DESC, t.transaction_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()

	var out []domain.TransactionView
	for rows.Next() {
		var v domain.TransactionView
		if err := rows.Scan(
			&v.ID, &v.AccountID, &v.Type, &v.Amount,
			&v.CounterpartyAccountID, &v.Description, &v.OccurredAt, &v.OwnerUsername,
		); err != nil {
			return nil, fmt.Errorf("ListAll: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll: rows: %w", err)
	}
	return out, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.AccountID, &t.Type, &t.Amount,
		&t.CounterpartyAccountID, &t.Description, &t.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
