package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultDSN         = "data/expenses.db"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	CORSOrigins string

	DatabaseDriver string // sqlite | postgres
	DatabaseDSN    string

	JWTSecret         string // empty disables authentication
	AdminUsername     string
	AdminPasswordHash string // bcrypt

	StatementHeaderRow     int             // 1-based row holding the column titles
	DefaultSenderTolerance decimal.Decimal // used when a sender is created without tolerance
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:               getEnv("HTTP_PORT", "8000"),
		CORSOrigins:            getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		DatabaseDriver:         getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:            getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:      getEnv("ADMIN_PASSWORD_HASH", ""),
		StatementHeaderRow:     getEnvInt("STATEMENT_HEADER_ROW", 19),
		DefaultSenderTolerance: getEnvDecimal("DEFAULT_SENDER_TOLERANCE", decimal.NewFromInt(5)),
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, the API is served without authentication")
	}
	if cfg.DatabaseDriver == DriverSQLite && cfg.DatabaseDSN == defaultDSN {
		log.Infof("using default SQLite database at %s", defaultDSN)
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Warn("CORS_ALLOWED_ORIGINS uses the development default")
	}

	return cfg
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is empty"))
	}
	if c.JWTSecret != "" {
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
		}
		if c.AdminPasswordHash == "" {
			errs = append(errs, errors.New("ADMIN_PASSWORD_HASH is required when JWT_SECRET is set"))
		}
	}
	if c.StatementHeaderRow < 1 {
		errs = append(errs, fmt.Errorf("STATEMENT_HEADER_ROW must be >= 1, got %d", c.StatementHeaderRow))
	}
	if c.DefaultSenderTolerance.IsNegative() {
		errs = append(errs, errors.New("DEFAULT_SENDER_TOLERANCE must not be negative"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether /api routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("%s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Warnf("%s=%q is not a number, using %s", key, v, def.StringFixed(2))
		return def
	}
	return d
}
