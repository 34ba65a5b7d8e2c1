package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const (
	accountColumns = `account_id, user_id, account_type, balance, status, created_at`

	constraintAccountPK       = "accounts_pkey"
	constraintAccountUserType = "accounts_user_id_account_type_key"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserAndType(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND account_type = $2`,
		userID, accountType,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserAndType: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByUserAndType: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, account_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", err)
	}
	return accounts, nil
}

// ListWithOwner returns every account with its owner's username, newest first.
func (r *AccountRepository) ListWithOwner(ctx context.Context) ([]domain.AccountSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.account_id, a.user_id, a.account_type, a.balance, a.status, a.created_at, u.username
		FROM accounts a JOIN users u ON u.user_id = a.user_id
		ORDER BY a.created_at DESC, a.account_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListWithOwner: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountSummary
	for rows.Next() {
		var s domain.AccountSummary
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.AccountType, &s.Balance, &s.Status, &s.CreatedAt, &s.Username,
		); err != nil {
			return nil, fmt.Errorf("ListWithOwner: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWithOwner: rows: %w", err)
	}
	return out, nil
}

func (r *AccountRepository) CountByUserID(ctx context.Context, tx *sql.Tx, userID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByUserID: %w", err)
	}
	return n, nil
}

// Create inserts a zero-balance active account. An identifier collision is
// reported as domain.ErrConflict so the caller can regenerate and retry.
func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO accounts (account_id, user_id, account_type, balance, status)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING balance, created_at`,
		account.ID, account.UserID, account.AccountType, domain.AccountStatusActive,
	).Scan(&account.Balance, &account.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case constraintAccountUserType:
				return fmt.Errorf("Create: %w", domain.ErrDuplicateType)
			case constraintAccountPK:
				return fmt.Errorf("Create: account id %s: %w", account.ID, domain.ErrConflict)
			}
		}
		if foreignKeyViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrUserNotFound)
		}
		return fmt.Errorf("Create: %w", err)
	}
	account.Status = domain.AccountStatusActive
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// AdjustBalance applies balance += delta as one conditional write. The row is
// only touched when the account is active and the result stays within
// [0, MaxMoney]; otherwise the reason is diagnosed inside the same
// transaction.
func (r *AccountRepository) AdjustBalance(ctx context.Context, tx *sql.Tx, id string, delta domain.Money) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1
		WHERE account_id = $2 AND status = $3 AND balance + $1 >= 0 AND balance + $1 <= $4
		RETURNING `+accountColumns,
		delta, id, domain.AccountStatusActive, domain.MaxMoney,
	)
	a, err := scanAccount(row)
	if err == nil {
		return a, nil
	}
	if numericOverflow(err) {
		return nil, fmt.Errorf("AdjustBalance: %w", domain.ErrBalanceLimit)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	current, err := r.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}
	if current.IsFrozen() {
		return nil, fmt.Errorf("AdjustBalance: %w", domain.ErrAccountFrozen)
	}
	if delta > 0 {
		return nil, fmt.Errorf("AdjustBalance: %w", domain.ErrBalanceLimit)
	}
	return nil, fmt.Errorf("AdjustBalance: %w", domain.ErrInsufficientFunds)
}

// SetStatus is idempotent: setting the current status succeeds unchanged.
func (r *AccountRepository) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("SetStatus: status %q: %w", status, domain.ErrInvalidInput)
	}
	row := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET status = $1 WHERE account_id = $2 RETURNING `+accountColumns,
		status, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("SetStatus: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("SetStatus: %w", err)
	}
	return a, nil
}

// Delete removes a zero-balance account. Transaction history is not touched.
func (r *AccountRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE account_id = $1 AND balance = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if exists {
		return fmt.Errorf("Delete: %w", domain.ErrNonZeroBalance)
	}
	return fmt.Errorf("Delete: %w", domain.ErrAccountNotFound)
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.UserID, &a.AccountType, &a.Balance, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
