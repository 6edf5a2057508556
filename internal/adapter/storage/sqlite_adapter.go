package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite has no row locks. Transactions are opened with BEGIN IMMEDIATE
// (_txlock=immediate), which takes the database write lock up front and
// serialises concurrent writers.
var SQLite = Dialect{
	name: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			unit_price DECIMAL(18, 2) NOT NULL CHECK (unit_price >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
		`CREATE TABLE IF NOT EXISTS order_details (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
			product_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			unit_price DECIMAL(18, 2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_details_order_id ON order_details (order_id)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log (created_at)`,
	},
}

// sqliteParams are the connection settings the unit of work relies on.
var sqliteParams = []struct{ key, value string }{
	{"_txlock", "immediate"},
	{"_busy_timeout", "5000"},
	{"_foreign_keys", "1"},
	{"_journal_mode", "WAL"},
}

// sqliteDSN adds any of sqliteParams the path does not set itself. A path
// asking for a transaction lock other than immediate is rejected, since
// writers would no longer be serialised.
func sqliteDSN(path string) (string, error) {
	name, rawQuery, _ := strings.Cut(path, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn: %w", err)
	}
	if lock := params.Get("_txlock"); lock != "" && lock != "immediate" {
		return "", fmt.Errorf("sqlite dsn sets _txlock=%s, need _txlock=immediate", lock)
	}

	for _, p := range sqliteParams {
		if !params.Has(p.key) {
			params.Set(p.key, p.value)
		}
	}
	if !strings.HasPrefix(name, "file:") {
		name = "file:" + name
	}
	return name + "?" + params.Encode(), nil
}

// OpenSQLite opens a file database with the locking and journal settings
// from sqliteParams merged into path.
func OpenSQLite(ctx context.Context, path string, pool PoolConfig) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	applyPool(db, pool)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
