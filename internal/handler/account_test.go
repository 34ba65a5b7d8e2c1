package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
	"github.com/josh-kwaku/corebank-ledger/internal/service/ledger"
)

type mockLedger struct {
	accounts map[string]*domain.Account

	opErr       error
	lastAmount  domain.Money
	lastTarget  string
	historyRole domain.Role
	opened      domain.AccountType
}

func newMockLedger() *mockLedger {
	return &mockLedger{accounts: map[string]*domain.Account{
		aliceAccount: {ID: aliceAccount, UserID: alice.UserID, AccountType: domain.AccountTypeSavings, Balance: 10000, Status: domain.AccountStatusActive},
		bobAccount:   {ID: bobAccount, UserID: 2, AccountType: domain.AccountTypeChecking, Balance: 500, Status: domain.AccountStatusActive},
	}}
}

func (m *mockLedger) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockLedger) OpenAccount(_ context.Context, userID int64, t domain.AccountType) (*domain.Account, error) {
	if m.opErr != nil {
		return nil, m.opErr
	}
	m.opened = t
	return &domain.Account{ID: "6214000000000000099", UserID: userID, AccountType: t, Status: domain.AccountStatusActive}, nil
}

func (m *mockLedger) ListAccounts(_ context.Context, userID int64) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockLedger) GetBalance(_ context.Context, id string) (domain.Money, error) {
	if a, ok := m.accounts[id]; ok {
		return a.Balance, nil
	}
	return 0, nil
}

func (m *mockLedger) History(_ context.Context, id string, viewer domain.Role) ([]domain.TransactionView, error) {
	m.historyRole = viewer
	return []domain.TransactionView{{Transaction: domain.Transaction{ID: 1, AccountID: id, Type: domain.TransactionTypeDeposit, Amount: 100}}}, nil
}

func (m *mockLedger) Deposit(_ context.Context, id string, amount domain.Money) (*ledger.Receipt, error) {
	return m.apply(id, amount, domain.TransactionTypeDeposit)
}

func (m *mockLedger) Withdraw(_ context.Context, id string, amount domain.Money) (*ledger.Receipt, error) {
	return m.apply(id, -amount, domain.TransactionTypeWithdrawal)
}

func (m *mockLedger) apply(id string, delta domain.Money, kind domain.TransactionType) (*ledger.Receipt, error) {
	if m.opErr != nil {
		return nil, m.opErr
	}
	m.lastAmount = delta
	a := *m.accounts[id]
	a.Balance += delta
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	return &ledger.Receipt{
		Account: &a,
		Records: []domain.Transaction{{ID: 7, AccountID: id, Type: kind, Amount: amount}},
	}, nil
}

func (m *mockLedger) Transfer(_ context.Context, from, to string, amount domain.Money) (*ledger.Receipt, error) {
	if m.opErr != nil {
		return nil, m.opErr
	}
	m.lastAmount = amount
	m.lastTarget = to
	src := *m.accounts[from]
	src.Balance -= amount
	return &ledger.Receipt{
		Account:      &src,
		Counterparty: &domain.Account{ID: to, AccountType: domain.AccountTypeChecking, Balance: 123456},
		Records: []domain.Transaction{
			{ID: 8, AccountID: from, Type: domain.TransactionTypeTransferOut, Amount: amount, CounterpartyAccountID: &to},
		},
	}, nil
}

func TestAccountHandler_Deposit(t *testing.T) {
	tests := []struct {
		name       string
		account    string
		body       string
		opErr      error
		wantStatus int
		wantCode   string
	}{
		{name: "valid deposit", account: aliceAccount, body: `{"amount":"25.50"}`, wantStatus: http.StatusOK},
		{name: "numeric amount", account: aliceAccount, body: `{"amount":25.5}`, wantStatus: http.StatusOK},
		{name: "zero amount", account: aliceAccount, body: `{"amount":"0"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_AMOUNT"},
		{name: "negative amount", account: aliceAccount, body: `{"amount":"-5"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_AMOUNT"},
		{name: "three decimals", account: aliceAccount, body: `{"amount":"1.005"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_AMOUNT"},
		{name: "not json", account: aliceAccount, body: `nope`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "unknown field", account: aliceAccount, body: `{"amount":"1","memo":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "someone else's account", account: bobAccount, body: `{"amount":"1"}`, wantStatus: http.StatusNotFound, wantCode: "ACCOUNT_NOT_FOUND"},
		{name: "malformed id", account: "abc", body: `{"amount":"1"}`, wantStatus: http.StatusNotFound, wantCode: "ACCOUNT_NOT_FOUND"},
		{name: "frozen", account: aliceAccount, body: `{"amount":"1"}`, opErr: domain.ErrAccountFrozen, wantStatus: http.StatusUnprocessableEntity, wantCode: "ACCOUNT_FROZEN"},
		{name: "storage down", account: aliceAccount, body: `{"amount":"1"}`, opErr: domain.ErrStorageUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "STORAGE_UNAVAILABLE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newMockLedger()
			l.opErr = tc.opErr
			h := NewAccountHandler(l, testIDs)

			req := newRequest(t, http.MethodPost, "/api/v1/accounts/"+tc.account+"/deposit", tc.body, &alice, map[string]string{"id": tc.account})
			rr := httptest.NewRecorder()
			h.Deposit(rr, req)

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantStatus, tc.wantCode)
				return
			}
			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.True(t, decodeResponse(t, rr).Success)
			assert.Equal(t, domain.Money(2550), l.lastAmount)
		})
	}
}

func TestAccountHandler_Withdraw(t *testing.T) {
	l := newMockLedger()
	h := NewAccountHandler(l, testIDs)

	req := newRequest(t, http.MethodPost, "/", `{"amount":"10.00"}`, &alice, map[string]string{"id": aliceAccount})
	rr := httptest.NewRecorder()
	h.Withdraw(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Money(-1000), l.lastAmount)
	assert.Contains(t, rr.Body.String(), `"balance":"90.00"`)
}

func TestAccountHandler_Transfer(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		opErr      error
		wantStatus int
		wantCode   string
	}{
		{name: "valid", body: `{"to_account_id":"` + bobAccount + `","amount":"12.00"}`, wantStatus: http.StatusOK},
		{name: "missing target", body: `{"amount":"12.00"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "malformed target", body: `{"to_account_id":"123","amount":"12.00"}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "TARGET_NOT_FOUND"},
		{name: "insufficient", body: `{"to_account_id":"` + bobAccount + `","amount":"12.00"}`, opErr: domain.ErrInsufficientFunds, wantStatus: http.StatusUnprocessableEntity, wantCode: "INSUFFICIENT_FUNDS"},
		{name: "same account", body: `{"to_account_id":"` + aliceAccount + `","amount":"12.00"}`, opErr: domain.ErrSameAccount, wantStatus: http.StatusUnprocessableEntity, wantCode: "SAME_ACCOUNT"},
		{name: "target frozen", body: `{"to_account_id":"` + bobAccount + `","amount":"12.00"}`, opErr: domain.ErrTargetFrozen, wantStatus: http.StatusUnprocessableEntity, wantCode: "TARGET_FROZEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newMockLedger()
			l.opErr = tc.opErr
			h := NewAccountHandler(l, testIDs)

			req := newRequest(t, http.MethodPost, "/", tc.body, &alice, map[string]string{"id": aliceAccount})
			rr := httptest.NewRecorder()
			h.Transfer(rr, req)

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantStatus, tc.wantCode)
				return
			}
			require.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, bobAccount, l.lastTarget)
			assert.Equal(t, domain.Money(1200), l.lastAmount)
			assert.NotContains(t, rr.Body.String(), "1234.56", "counterparty balance must not leak")
		})
	}
}

func TestAccountHandler_AdminCannotMoveOthersMoney(t *testing.T) {
	h := NewAccountHandler(newMockLedger(), testIDs)

	req := newRequest(t, http.MethodPost, "/", `{"amount":"1"}`, &admin, map[string]string{"id": aliceAccount})
	rr := httptest.NewRecorder()
	h.Withdraw(rr, req)

	assertErrorCode(t, rr, http.StatusNotFound, "ACCOUNT_NOT_FOUND")
}

func TestAccountHandler_Transactions(t *testing.T) {
	tests := []struct {
		name     string
		identity auth.Identity
		wantRole domain.Role
	}{
		{name: "owner sees own history", identity: alice, wantRole: domain.RoleCustomer},
		{name: "admin sees everything", identity: admin, wantRole: domain.RoleAdmin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newMockLedger()
			h := NewAccountHandler(l, testIDs)

			req := newRequest(t, http.MethodGet, "/", "", &tc.identity, map[string]string{"id": aliceAccount})
			rr := httptest.NewRecorder()
			h.Transactions(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.wantRole, l.historyRole)
		})
	}
}

func TestAccountHandler_Open_LeavesAuditLogToLedger(t *testing.T) {
	var buf bytes.Buffer
	h := NewAccountHandler(newMockLedger(), testIDs)

	req := newRequest(t, http.MethodPost, "/api/v1/accounts", `{"account_type":"savings"}`, &alice, nil)
	req = req.WithContext(logging.WithLogger(req.Context(), logging.New(&buf, "debug", "production")))
	rr := httptest.NewRecorder()
	h.Open(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, buf.String(), "account opened")
}

func TestAccountHandler_Open(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		opErr      error
		wantStatus int
		wantCode   string
	}{
		{name: "savings", body: `{"account_type":"savings"}`, wantStatus: http.StatusCreated},
		{name: "unknown type", body: `{"account_type":"crypto"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "duplicate type", body: `{"account_type":"savings"}`, opErr: domain.ErrDuplicateType, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_ACCOUNT_TYPE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newMockLedger()
			l.opErr = tc.opErr
			h := NewAccountHandler(l, testIDs)

			req := newRequest(t, http.MethodPost, "/api/v1/accounts", tc.body, &alice, nil)
			rr := httptest.NewRecorder()
			h.Open(rr, req)

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantStatus, tc.wantCode)
				return
			}
			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, domain.AccountTypeSavings, l.opened)
		})
	}
}

func TestAccountHandler_GetAndBalance(t *testing.T) {
	h := NewAccountHandler(newMockLedger(), testIDs)

	rr := httptest.NewRecorder()
	h.Balance(rr, newRequest(t, http.MethodGet, "/", "", &alice, map[string]string{"id": aliceAccount}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"balance":"100.00"`)

	rr = httptest.NewRecorder()
	h.Get(rr, newRequest(t, http.MethodGet, "/", "", &alice, map[string]string{"id": bobAccount}))
	assertErrorCode(t, rr, http.StatusNotFound, "ACCOUNT_NOT_FOUND")

	rr = httptest.NewRecorder()
	h.Get(rr, newRequest(t, http.MethodGet, "/", "", nil, map[string]string{"id": aliceAccount}))
	assertErrorCode(t, rr, http.StatusUnauthorized, "MISSING_TOKEN")
}
