// Package ledger is the only writer of account balances and the transaction
// log. Every mutating operation runs in one database transaction and is
// either applied in full or not at all.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/events"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
	"github.com/josh-kwaku/corebank-ledger/internal/metrics"
)

type accountStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUserAndType(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Account, error)
	ListWithOwner(ctx context.Context) ([]domain.AccountSummary, error)
	CountByUserID(ctx context.Context, tx *sql.Tx, userID int64) (int, error)
	Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error)
	AdjustBalance(ctx context.Context, tx *sql.Tx, id string, delta domain.Money) (*domain.Account, error)
	SetStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error)
	Delete(ctx context.Context, tx *sql.Tx, id string) error
}

type transactionLog interface {
	Append(ctx context.Context, tx *sql.Tx, rec *domain.Transaction) error
	ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error)
	ListAll(ctx context.Context) ([]domain.TransactionView, error)
}

type userStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.User, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type idGenerator interface {
	Generate() (string, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type Config struct {
	// OperationTimeout bounds the storage wait of a single operation.
	OperationTimeout time.Duration
	// MaxIDAttempts is how many generated identifiers OpenAccount tries
	// before giving up on collisions.
	MaxIDAttempts int
	// AdminUsername names the privileged user, which DeleteUser refuses to
	// remove.
	AdminUsername string
}

// Receipt is the result of a successful balance-affecting operation: the
// account as left by the operation and the log records it appended.
type Receipt struct {
	Account      *domain.Account
	Counterparty *domain.Account
	Records      []domain.Transaction
}

type Service struct {
	db        txBeginner
	accounts  accountStore
	log       transactionLog
	users     userStore
	ids       idGenerator
	publisher events.Publisher
	cfg       Config
}

func NewService(
	db txBeginner,
	accounts accountStore,
	log transactionLog,
	users userStore,
	ids idGenerator,
	publisher events.Publisher,
	cfg Config,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}
	if cfg.MaxIDAttempts < 1 {
		cfg.MaxIDAttempts = 1
	}
	return &Service{
		db:        db,
		accounts:  accounts,
		log:       log,
		users:     users,
		ids:       ids,
		publisher: publisher,
		cfg:       cfg,
	}
}

// execute runs fn detached from the caller's cancellation and bounded by
// the operation timeout. Once admitted an operation runs to a terminal
// result.
func (s *Service) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OperationTimeout)
	defer cancel()

	err := classify(fn(ctx))
	metrics.ObserveOperation(op, start, err)
	if err != nil {
		logging.FromContext(ctx).Debug("ledger operation refused",
			"operation", op,
			"result", metrics.Result(err),
			"error", err,
		)
	}
	return err
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inTx: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("inTx: commit: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		logging.FromContext(ctx).Warn("publish ledger event failed",
			"routing_key", evs[0].RoutingKey(),
			"count", len(evs),
			"error", err,
		)
	}
}

// classify marks errors that carry no business meaning as
// domain.ErrStorageUnavailable, keeping the original cause in the chain.
func classify(err error) error {
	if err == nil || domain.IsBusinessError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func requireAccountID(id string) error {
	if id == "" {
		return fmt.Errorf("account id is required: %w", domain.ErrInvalidInput)
	}
	return nil
}

func requirePositive(amount domain.Money) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	return nil
}
