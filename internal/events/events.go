// Package events publishes ledger facts after their transaction commits.
// Publishing is best effort: a failed publish never changes the outcome of
// the ledger operation that produced it.
package events

import (
	"context"
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const (
	KindAccountOpened   = "account.opened"
	KindAccountClosed   = "account.closed"
	KindAccountFrozen   = "account.frozen"
	KindAccountUnfrozen = "account.unfrozen"
)

type Event struct {
	Kind                  string        `json:"kind"`
	AccountID             string        `json:"account_id"`
	CounterpartyAccountID *string       `json:"counterparty_account_id,omitempty"`
	TransactionID         int64         `json:"transaction_id,omitempty"`
	Amount                *domain.Money `json:"amount,omitempty"`
	Balance               *domain.Money `json:"balance,omitempty"`
	OccurredAt            time.Time     `json:"occurred_at"`
}

// RoutingKey is "ledger." + Kind, e.g. ledger.transaction.deposit.
func (e Event) RoutingKey() string {
	return "ledger." + e.Kind
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// FromTransaction builds the event for one committed log record.
func FromTransaction(rec domain.Transaction, balance domain.Money) Event {
	amount := rec.Amount
	return Event{
		Kind:                  "transaction." + string(rec.Type),
		AccountID:             rec.AccountID,
		CounterpartyAccountID: rec.CounterpartyAccountID,
		TransactionID:         rec.ID,
		Amount:                &amount,
		Balance:               &balance,
		OccurredAt:            rec.OccurredAt,
	}
}

func ForAccount(kind string, account *domain.Account) Event {
	return Event{
		Kind:       kind,
		AccountID:  account.ID,
		OccurredAt: time.Now().UTC(),
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

func (NopPublisher) Close() error { return nil }
