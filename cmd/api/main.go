package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corebank-ledger/internal/accountid"
	"github.com/josh-kwaku/corebank-ledger/internal/config"
	"github.com/josh-kwaku/corebank-ledger/internal/events"
	"github.com/josh-kwaku/corebank-ledger/internal/handler"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
	"github.com/josh-kwaku/corebank-ledger/internal/ratelimit"
	"github.com/josh-kwaku/corebank-ledger/internal/repository"
	"github.com/josh-kwaku/corebank-ledger/internal/service"
	"github.com/josh-kwaku/corebank-ledger/internal/service/ledger"
)

const (
	version                = "1.0.0"
	idempotencySweepPeriod = time.Hour
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	users := repository.NewUserRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)
	store := repository.NewDB(db)

	userSvc := service.NewUserService(users, bcrypt.DefaultCost, cfg.AdminUsername)
	if cfg.AdminPassword != "" {
		if err := userSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	} else {
		logger.Warn("ADMIN_PASSWORD not set, admin user not provisioned", "admin_username", cfg.AdminUsername)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	limiter, closeLimiter, err := newLoginLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	ids := accountid.New(cfg.AccountIDPrefix)
	ledgerSvc := ledger.NewService(store, accounts, transactions, users, ids, publisher, ledger.Config{
		OperationTimeout: cfg.OperationTimeout,
		MaxIDAttempts:    cfg.AccountIDMaxAttempts,
		AdminUsername:    cfg.AdminUsername,
	})

	router := newRouter(routerDeps{
		cfg:         cfg,
		health:      handler.NewHealthHandler(store, version),
		auth:        handler.NewAuthHandler(userSvc, limiter, cfg.JWTSecret, cfg.JWTExpiry, cfg.AdminUsername),
		accounts:    handler.NewAccountHandler(ledgerSvc, ids),
		admin:       handler.NewAdminHandler(ledgerSvc, userSvc, ids),
		idempotency: idempotency,
	})

	go sweepIdempotencyCache(ctx, idempotency)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, ledger events disabled")
		return events.NopPublisher{}, nil
	}
	p, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	slog.Info("publishing ledger events", "exchange", cfg.EventsExchange)
	return p, nil
}

// newLoginLimiter shares login throttling across instances through Redis
// when REDIS_URL is set and falls back to an in-process limiter otherwise.
func newLoginLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewLocal(cfg.LoginRatePerMinute, cfg.LoginBurst), func() {}, nil
	}
	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	limiter := ratelimit.NewRedis(client, "login", cfg.LoginRatePerMinute, time.Minute)
	return limiter, func() { _ = client.Close() }, nil
}

func sweepIdempotencyCache(ctx context.Context, repo *repository.IdempotencyRepository) {
	ticker := time.NewTicker(idempotencySweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("idempotency sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("idempotency sweep", "deleted", n)
			}
		}
	}
}
