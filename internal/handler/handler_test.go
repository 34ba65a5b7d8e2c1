package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corebank-ledger/internal/accountid"
	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const (
	aliceAccount = "6214000000000000001"
	bobAccount   = "6214000000000000002"
)

var testIDs = accountid.New(accountid.DefaultPrefix)

var (
	alice = auth.Identity{UserID: 1, Username: "alice", Role: domain.RoleCustomer}
	admin = auth.Identity{UserID: 9, Username: "admin", Role: domain.RoleAdmin}
)

func newRequest(t *testing.T, method, target, body string, identity *auth.Identity, params map[string]string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	ctx := req.Context()
	if identity != nil {
		ctx = auth.ContextWithIdentity(ctx, *identity)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assert.Equal(t, wantStatus, rr.Code)
	resp := decodeResponse(t, rr)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, wantCode, resp.Error.Code)
}
