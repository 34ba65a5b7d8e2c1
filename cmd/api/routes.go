package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/corebank-ledger/internal/config"
	"github.com/josh-kwaku/corebank-ledger/internal/handler"
	"github.com/josh-kwaku/corebank-ledger/internal/middleware"
	"github.com/josh-kwaku/corebank-ledger/internal/repository"
)

type routerDeps struct {
	cfg         *config.Config
	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	accounts    *handler.AccountHandler
	admin       *handler.AdminHandler
	idempotency *repository.IdempotencyRepository
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", d.health.Liveness)
	r.Get("/ready", d.health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", d.auth.Register)
		r.Post("/auth/login", d.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.cfg.JWTSecret, d.cfg.AdminUsername))

			r.Put("/auth/password", d.auth.ChangePassword)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", d.accounts.List)
				r.Post("/", d.accounts.Open)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", d.accounts.Get)
					r.Get("/balance", d.accounts.Balance)
					r.Get("/transactions", d.accounts.Transactions)

					r.Group(func(r chi.Router) {
						r.Use(middleware.Idempotency(d.idempotency))
						r.Post("/deposit", d.accounts.Deposit)
						r.Post("/withdraw", d.accounts.Withdraw)
						r.Post("/transfer", d.accounts.Transfer)
					})
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/accounts", d.admin.ListAccounts)
				r.Get("/users", d.admin.ListUsers)
				r.Get("/transactions", d.admin.ListTransactions)
				r.Post("/accounts/{id}/freeze", d.admin.Freeze)
				r.Post("/accounts/{id}/unfreeze", d.admin.Unfreeze)
				r.Delete("/accounts/{id}", d.admin.CloseAccount)
				r.Delete("/users/{id}", d.admin.DeleteUser)
			})
		})
	})

	return r
}
