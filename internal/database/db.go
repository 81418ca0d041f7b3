package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config carries the connection and pool settings for the tenant database.
// The pool knobs are env-driven (config.Load) and zero values fall back to
// defaults sized for a single restaurant backend.
type Config struct {
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) dsn() string {
	auth := c.User
	if c.Pass != "" {
		auth = c.User + ":" + c.Pass
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps ticket and
	// payment timestamps comparable across devices in different timezones
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.Host, c.Port, c.Name)
}

func (c Config) withPoolDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	return c
}

// Open connects to MySQL, applies the pool settings, verifies the
// connection and creates the server-authoritative tables.  No handler ever
// runs against a half-bootstrapped schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, err
	}

	cfg = cfg.withPoolDefaults()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
