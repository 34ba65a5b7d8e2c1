package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

func TestFromTransaction(t *testing.T) {
	counterparty := "6214202601010900200"
	at := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rec := domain.Transaction{
		ID:                    42,
		AccountID:             "6214202601010900100",
		Type:                  domain.TransactionTypeTransferOut,
		Amount:                10000,
		CounterpartyAccountID: &counterparty,
		OccurredAt:            at,
	}

	e := FromTransaction(rec, 20000)
	assert.Equal(t, "ledger.transaction.transfer_out", e.RoutingKey())

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "transaction.transfer_out",
		"account_id": "6214202601010900100",
		"counterparty_account_id": "6214202601010900200",
		"transaction_id": 42,
		"amount": "100.00",
		"balance": "200.00",
		"occurred_at": "2026-01-01T09:00:00Z"
	}`, string(b))
}

func TestForAccount(t *testing.T) {
	e := ForAccount(KindAccountFrozen, &domain.Account{ID: "6214202601010900100"})
	assert.Equal(t, "ledger.account.frozen", e.RoutingKey())
	assert.Nil(t, e.Amount)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Kind: KindAccountOpened}))
	assert.NoError(t, p.Close())
}
