package testutil

import (
	"database/sql"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, username string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "Test " + username,
		IDDocument:   "ID-" + username,
		Phone:        "555-0100",
		Email:        username + "@example.com",
	}

	err = db.QueryRow(
		`INSERT INTO users (username, password_hash, full_name, id_document, phone, email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING user_id, created_at`,
		u.Username, u.PasswordHash, u.FullName, u.IDDocument, u.Phone, u.Email,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		t.Fatalf("seed test user %s: %v", username, err)
	}
	return u
}

// SeedTestAccount inserts an active account directly, bypassing the engine.
func SeedTestAccount(t *testing.T, db *sql.DB, id string, userID int64, accountType domain.AccountType, balance domain.Money) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:          id,
		UserID:      userID,
		AccountType: accountType,
		Balance:     balance,
		Status:      domain.AccountStatusActive,
	}
	err := db.QueryRow(
		`INSERT INTO accounts (account_id, user_id, account_type, balance, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		a.ID, a.UserID, a.AccountType, a.Balance, a.Status,
	).Scan(&a.CreatedAt)
	if err != nil {
		t.Fatalf("seed test account %s: %v", id, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID string) domain.Money {
	t.Helper()

	var balance domain.Money
	err := db.QueryRow(`SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func GetAccountStatus(t *testing.T, db *sql.DB, accountID string) domain.AccountStatus {
	t.Helper()

	var status domain.AccountStatus
	err := db.QueryRow(`SELECT status FROM accounts WHERE account_id = $1`, accountID).Scan(&status)
	if err != nil {
		t.Fatalf("get account status %s: %v", accountID, err)
	}
	return status
}

func CountTransactions(t *testing.T, db *sql.DB, accountID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", accountID, err)
	}
	return count
}

func AccountExists(t *testing.T, db *sql.DB, accountID string) bool {
	t.Helper()

	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1)`, accountID).Scan(&exists)
	if err != nil {
		t.Fatalf("check account %s: %v", accountID, err)
	}
	return exists
}
