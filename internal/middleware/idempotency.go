package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/handler"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
	"github.com/josh-kwaku/corebank-ledger/internal/repository"
)

type responseStore interface {
	Reserve(ctx context.Context, userID int64, key, requestHash string, leaseUntil time.Time) (bool, error)
	Lookup(ctx context.Context, userID int64, key string) (*repository.StoredResponse, error)
	Complete(ctx context.Context, resp *repository.StoredResponse) error
	Release(ctx context.Context, userID int64, key string) error
}

const (
	idempotencyTTL       = 24 * time.Hour
	maxIdempotencyKeyLen = 128
	maxIdempotentBody    = 1 << 20

	// reservationLease outlives any single ledger operation, so a key stays
	// claimed while its request runs and frees itself if the process dies.
	reservationLease = 2 * time.Minute
)

// Idempotency replays the stored response when a client repeats a mutating
// request with the same Idempotency-Key. Keys are scoped per user. The key is
// reserved before the handler runs, so a concurrent duplicate is turned away
// instead of executing twice. Server errors are not stored: they leave the
// ledger unchanged, so a retry must be allowed to run.
func Idempotency(store responseStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" || len(key) > maxIdempotencyKeyLen {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil || len(body) > maxIdempotentBody {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logging.FromContext(r.Context())
			reqHash := requestHash(r.Method, r.URL.Path, body)

			reserved, err := store.Reserve(r.Context(), identity.UserID, key, reqHash, time.Now().Add(reservationLease))
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrStorageUnavailable, nil)
				return
			}
			if !reserved {
				replay(w, r, store, identity.UserID, key, reqHash)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			ctx := context.WithoutCancel(r.Context())
			if rec.statusCode >= http.StatusInternalServerError {
				if err := store.Release(ctx, identity.UserID, key); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
				return
			}

			err = store.Complete(ctx, &repository.StoredResponse{
				Key:         key,
				UserID:      identity.UserID,
				RequestHash: reqHash,
				StatusCode:  rec.statusCode,
				Body:        rec.body.Bytes(),
				ExpiresAt:   time.Now().Add(idempotencyTTL),
			})
			if err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
				if err := store.Release(ctx, identity.UserID, key); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
			}
		})
	}
}

// replay answers a request whose key is already claimed: with the stored
// response once the first request has finished, or 409 while it is running.
func replay(w http.ResponseWriter, r *http.Request, store responseStore, userID int64, key, reqHash string) {
	log := logging.FromContext(r.Context())

	cached, err := store.Lookup(r.Context(), userID, key)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
		handler.RespondAppError(w, handler.ErrStorageUnavailable, nil)
		return
	}
	if cached == nil {
		// The holder released or expired between Reserve and Lookup.
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}
	if cached.RequestHash != reqHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}
	if cached.Pending() {
		log.Warn("concurrent request with the same idempotency key", "idempotency_key", key)
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.Body); err != nil {
		log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
	}
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
