package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

// purgeBatch bounds one DELETE of the expiry sweep so it never holds locks
// on the whole cache.
const purgeBatch = 1000

// StoredResponse is the recorded outcome of one money-moving request,
// replayed when the same user retries with the same Idempotency-Key. While
// the first request is still running the entry is a reservation: it has no
// status code or body yet.
type StoredResponse struct {
	Key         string
	UserID      int64
	RequestHash string
	StatusCode  int
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Pending reports whether the entry is a reservation whose request has not
// finished.
func (s *StoredResponse) Pending() bool { return s.StatusCode == 0 }

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Lookup returns the live entry stored under (userID, key), pending or
// completed, or nil.
func (r *IdempotencyRepository) Lookup(ctx context.Context, userID int64, key string) (*StoredResponse, error) {
	var (
		s      StoredResponse
		status sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE user_id = $1 AND idempotency_key = $2 AND expires_at > now()`,
		userID, key,
	).Scan(&s.Key, &s.UserID, &s.RequestHash, &status, &s.Body, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Lookup: %w", err)
	}
	s.StatusCode = int(status.Int64)
	return &s, nil
}

// Reserve claims (userID, key) for one in-flight request until leaseUntil.
// An expired entry under the same key is taken over; a live one, pending or
// completed, is left alone. Only one of any number of concurrent callers
// gets true.
func (r *IdempotencyRepository) Reserve(ctx context.Context, userID int64, key, requestHash string, leaseUntil time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, NULL, NULL, now(), $4)
		ON CONFLICT (idempotency_key, user_id) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
			status_code = NULL,
			response_body = NULL,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		key, userID, requestHash, leaseUntil,
	)
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Reserve: rows affected: %w", err)
	}
	return n == 1, nil
}

// Complete turns the caller's reservation into a replayable response. It
// fails with ErrNotFound when the reservation is gone, e.g. after its lease
// ran out and another request took the key over.
func (r *IdempotencyRepository) Complete(ctx context.Context, resp *StoredResponse) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $1, response_body = $2, expires_at = $3
		WHERE user_id = $4 AND idempotency_key = $5 AND request_hash = $6 AND status_code IS NULL`,
		resp.StatusCode, resp.Body, resp.ExpiresAt, resp.UserID, resp.Key, resp.RequestHash,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Complete: reservation %q: %w", resp.Key, domain.ErrNotFound)
	}
	return nil
}

// Release drops a reservation whose request produced nothing worth
// replaying, so a retry with the same key runs again. Completed entries are
// never released.
func (r *IdempotencyRepository) Release(ctx context.Context, userID int64, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache
		WHERE user_id = $1 AND idempotency_key = $2 AND status_code IS NULL`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired responses in batches until none remain and
// returns how many were removed.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	var total int64
	for {
		res, err := r.db.ExecContext(ctx,
			`DELETE FROM idempotency_cache
			WHERE ctid IN (
				SELECT ctid FROM idempotency_cache WHERE expires_at <= now() LIMIT $1
			)`,
			purgeBatch,
		)
		if err != nil {
			return total, fmt.Errorf("PurgeExpired: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("PurgeExpired: rows affected: %w", err)
		}
		total += n
		if n < purgeBatch {
			return total, nil
		}
	}
}
