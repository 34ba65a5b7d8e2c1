package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const testJWTSecret = "test-jwt-secret"

type mockUsers struct {
	passwords map[string]string
	createErr error
	created   *domain.UserProfile
	updated   string
}

func (m *mockUsers) Authenticate(_ context.Context, username, password string) (bool, error) {
	want, ok := m.passwords[username]
	return ok && want == password, nil
}

func (m *mockUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if _, ok := m.passwords[username]; !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: 42, Username: username, FullName: "Test User"}, nil
}

func (m *mockUsers) CreateUser(_ context.Context, p domain.UserProfile) (*domain.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &p
	return &domain.User{ID: 43, Username: p.Username, FullName: p.FullName}, nil
}

func (m *mockUsers) UpdatePassword(_ context.Context, username, newPassword string) error {
	m.updated = username + ":" + newPassword
	return nil
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}

func newAuthHandler(users *mockUsers, limiter *mockLimiter) *AuthHandler {
	return NewAuthHandler(users, limiter, testJWTSecret, time.Hour, "admin")
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		limiter    *mockLimiter
		wantStatus int
		wantCode   string
	}{
		{name: "valid credentials", body: `{"username":"alice","password":"s3cret-pass"}`, limiter: &mockLimiter{allow: true}, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"username":"alice","password":"nope"}`, limiter: &mockLimiter{allow: true}, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "unknown user", body: `{"username":"mallory","password":"x"}`, limiter: &mockLimiter{allow: true}, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "missing password", body: `{"username":"alice"}`, limiter: &mockLimiter{allow: true}, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "throttled", body: `{"username":"alice","password":"s3cret-pass"}`, limiter: &mockLimiter{allow: false}, wantStatus: http.StatusTooManyRequests, wantCode: "TOO_MANY_ATTEMPTS"},
		{name: "throttle backend down fails open", body: `{"username":"alice","password":"s3cret-pass"}`, limiter: &mockLimiter{err: errors.New("redis down")}, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &mockUsers{passwords: map[string]string{"alice": "s3cret-pass"}}
			h := newAuthHandler(users, tc.limiter)

			rr := httptest.NewRecorder()
			h.Login(rr, newRequest(t, http.MethodPost, "/api/v1/auth/login", tc.body, nil, nil))

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantStatus, tc.wantCode)
				return
			}
			require.Equal(t, tc.wantStatus, rr.Code)

			resp := decodeResponse(t, rr)
			data, ok := resp.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, string(domain.RoleCustomer), data["role"])

			claims, err := auth.ValidateToken(data["token"].(string), testJWTSecret)
			require.NoError(t, err)
			assert.Equal(t, int64(42), claims.UserID)
			assert.Equal(t, "alice", claims.Username)
		})
	}
}

func TestAuthHandler_Login_ThrottleKeyIsCaseInsensitive(t *testing.T) {
	limiter := &mockLimiter{allow: true}
	h := newAuthHandler(&mockUsers{passwords: map[string]string{}}, limiter)

	h.Login(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", `{"username":"Alice","password":"x"}`, nil, nil))
	h.Login(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", `{"username":"alice","password":"x"}`, nil, nil))

	assert.Equal(t, []string{"alice", "alice"}, limiter.keys)
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "valid", body: `{"username":"carol","password":"long-enough","full_name":"Carol C","email":"carol@example.com"}`, wantStatus: http.StatusCreated},
		{name: "short password", body: `{"username":"carol","password":"short","full_name":"Carol C"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "bad email", body: `{"username":"carol","password":"long-enough","full_name":"Carol C","email":"nope"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "administrator username reserved", body: `{"username":"Admin","password":"long-enough","full_name":"Mallory"}`, wantStatus: http.StatusConflict, wantCode: "USERNAME_TAKEN"},
		{name: "username taken", body: `{"username":"carol","password":"long-enough","full_name":"Carol C"}`, createErr: domain.ErrDuplicateUsername, wantStatus: http.StatusConflict, wantCode: "USERNAME_TAKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &mockUsers{createErr: tc.createErr}
			h := newAuthHandler(users, &mockLimiter{allow: true})

			rr := httptest.NewRecorder()
			h.Register(rr, newRequest(t, http.MethodPost, "/api/v1/auth/register", tc.body, nil, nil))

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantStatus, tc.wantCode)
				if tc.createErr == nil {
					assert.Nil(t, users.created, "refused before reaching the directory")
				}
				return
			}
			require.Equal(t, tc.wantStatus, rr.Code)
			require.NotNil(t, users.created)
			assert.Equal(t, "carol", users.created.Username)
			assert.NotContains(t, rr.Body.String(), "long-enough")
		})
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	users := &mockUsers{passwords: map[string]string{"alice": "old-password"}}
	h := newAuthHandler(users, &mockLimiter{allow: true})

	rr := httptest.NewRecorder()
	h.ChangePassword(rr, newRequest(t, http.MethodPut, "/", `{"current_password":"wrong","new_password":"new-password"}`, &alice, nil))
	assertErrorCode(t, rr, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	assert.Empty(t, users.updated)

	rr = httptest.NewRecorder()
	h.ChangePassword(rr, newRequest(t, http.MethodPut, "/", `{"current_password":"old-password","new_password":"new-password"}`, &alice, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "alice:new-password", users.updated)
}
