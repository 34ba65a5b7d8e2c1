package handler

import (
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/service/ledger"
)

type accountDTO struct {
	ID          string               `json:"id"`
	UserID      int64                `json:"user_id"`
	Username    string               `json:"username,omitempty"`
	AccountType domain.AccountType   `json:"account_type"`
	Balance     domain.Money         `json:"balance"`
	Status      domain.AccountStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:          a.ID,
		UserID:      a.UserID,
		AccountType: a.AccountType,
		Balance:     a.Balance,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}

func toAccountDTOs(accounts []domain.Account) []accountDTO {
	out := make([]accountDTO, len(accounts))
	for i := range accounts {
		out[i] = toAccountDTO(&accounts[i])
	}
	return out
}

func toSummaryDTOs(summaries []domain.AccountSummary) []accountDTO {
	out := make([]accountDTO, len(summaries))
	for i := range summaries {
		out[i] = toAccountDTO(&summaries[i].Account)
		out[i].Username = summaries[i].Username
	}
	return out
}

type transactionDTO struct {
	ID                    int64                  `json:"id"`
	AccountID             string                 `json:"account_id"`
	Type                  domain.TransactionType `json:"type"`
	Amount                domain.Money           `json:"amount"`
	CounterpartyAccountID *string                `json:"counterparty_account_id"`
	Description           string                 `json:"description"`
	OccurredAt            time.Time              `json:"occurred_at"`
	OwnerUsername         *string                `json:"owner_username,omitempty"`
}

func toTransactionDTO(t domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                    t.ID,
		AccountID:             t.AccountID,
		Type:                  t.Type,
		Amount:                t.Amount,
		CounterpartyAccountID: t.CounterpartyAccountID,
		Description:           t.Description,
		OccurredAt:            t.OccurredAt,
	}
}

func toTransactionViewDTOs(views []domain.TransactionView) []transactionDTO {
	out := make([]transactionDTO, len(views))
	for i, v := range views {
		out[i] = toTransactionDTO(v.Transaction)
		out[i].OwnerUsername = v.OwnerUsername
	}
	return out
}

type counterpartyDTO struct {
	ID          string             `json:"id"`
	AccountType domain.AccountType `json:"account_type"`
}

type receiptDTO struct {
	Account      accountDTO       `json:"account"`
	Counterparty *counterpartyDTO `json:"counterparty,omitempty"`
	Transactions []transactionDTO `json:"transactions"`
}

// toReceiptDTO hides the counterparty's balance; the caller only owns the
// source account.
func toReceiptDTO(r *ledger.Receipt) receiptDTO {
	dto := receiptDTO{
		Account:      toAccountDTO(r.Account),
		Transactions: make([]transactionDTO, len(r.Records)),
	}
	for i, rec := range r.Records {
		dto.Transactions[i] = toTransactionDTO(rec)
	}
	if r.Counterparty != nil {
		dto.Counterparty = &counterpartyDTO{
			ID:          r.Counterparty.ID,
			AccountType: r.Counterparty.AccountType,
		}
	}
	return dto
}

type userDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
