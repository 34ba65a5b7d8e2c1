package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	AccountIDPrefix      string        `env:"ACCOUNT_ID_PREFIX" envDefault:"6214"`
	AccountIDMaxAttempts int           `env:"ACCOUNT_ID_MAX_ATTEMPTS" envDefault:"5"`
	OperationTimeout     time.Duration `env:"OPERATION_TIMEOUT" envDefault:"5s"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`

	RedisURL           string `env:"REDIS_URL"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int    `env:"LOGIN_BURST" envDefault:"5"`

	RabbitMQURL    string `env:"RABBITMQ_URL"`
	EventsExchange string `env:"EVENTS_EXCHANGE" envDefault:"ledger.events"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.AccountIDMaxAttempts < 1 {
		return nil, fmt.Errorf("config.Load: ACCOUNT_ID_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.OperationTimeout <= 0 {
		return nil, fmt.Errorf("config.Load: OPERATION_TIMEOUT must be positive")
	}
	return &cfg, nil
}
