package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	name string

	// lockingRead is appended to reads issued inside a transaction so that
	// a checked stock value cannot change before it is written back.
	lockingRead string

	txOptions *sql.TxOptions
	schema    []string
}

func (d Dialect) Name() string {
	return d.name
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the database for driver and returns the matching dialect.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, Dialect, error) {
	switch driver {
	case MySQL.name:
		db, err := OpenMySQL(ctx, dsn, pool)
		return db, MySQL, err
	case SQLite.name, "sqlite":
		db, err := OpenSQLite(ctx, dsn, pool)
		return db, SQLite, err
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", dialect.name, err)
		}
	}
	return nil
}

func applyPool(db *sql.DB, pool PoolConfig) {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
