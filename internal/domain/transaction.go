package domain

import "time"

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

func (t TransactionType) IsTransfer() bool {
	return t == TransactionTypeTransferOut || t == TransactionTypeTransferIn
}

// Transaction is one immutable entry of an account's log.
type Transaction struct {
	ID                    int64
	AccountID             string
	Type                  TransactionType
	Amount                Money
	CounterpartyAccountID *string
	Description           string
	OccurredAt            time.Time
}

// TransactionView is a log entry joined with the owner of its account.
// OwnerUsername is nil when the account has since been closed.
type TransactionView struct {
	Transaction
	OwnerUsername *string
}
