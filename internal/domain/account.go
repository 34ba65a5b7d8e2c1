package domain

import "time"

type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
	AccountTypeTerm     AccountType = "term"
)

var accountTypes = []AccountType{AccountTypeSavings, AccountTypeChecking, AccountTypeTerm}

func (t AccountType) IsValid() bool {
	for _, v := range accountTypes {
		if t == v {
			return true
		}
	}
	return false
}

func AccountTypes() []AccountType {
	out := make([]AccountType, len(accountTypes))
	copy(out, accountTypes)
	return out
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
)

func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusFrozen
}

type Account struct {
	ID          string
	UserID      int64
	AccountType AccountType
	Balance     Money
	Status      AccountStatus
	CreatedAt   time.Time
}

func (a *Account) IsFrozen() bool {
	return a.Status == AccountStatusFrozen
}

// AccountSummary is an account joined with its owner's username, used by
// the administrative listing.
type AccountSummary struct {
	Account
	Username string
}
