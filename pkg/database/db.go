// Package database wraps the sqlx connection behind the interface the
// repositories consume.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB is the query surface the repositories depend on. *sqlx.DB satisfies
// it; tests substitute fakes.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	PingContext(ctx context.Context) error
	Close() error
}

// Config holds the postgres connection settings.
type Config struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	Name     string `env:"DB_NAME" env-default:"sorrel"`
	SSLMode  string `env:"DB_SSL_MODE" env-default:"disable"`

	MaxOpenConns    int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime int `env:"DB_CONN_MAX_LIFETIME_MINUTES" env-default:"30"`
}

// DSN renders the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// DatabaseInstance is the production DB backed by sqlx.
type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

// Connect opens, configures and pings a postgres connection.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (*DatabaseInstance, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]any{"host": cfg.Host, "database": cfg.Name}).Info("Connected to database")
	return &DatabaseInstance{DB: db, logger: logger}, nil
}
