package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL locks stock rows with SELECT ... FOR UPDATE inside transactions.
var MySQL = Dialect{
	name:        "mysql",
	lockingRead: " FOR UPDATE",
	txOptions:   &sql.TxOptions{Isolation: sql.LevelRepeatableRead},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			product_name VARCHAR(255) NOT NULL,
			stock INT NOT NULL,
			unit_price DECIMAL(18, 2) NOT NULL,
			CHECK (stock >= 0),
			CHECK (unit_price >= 0)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_orders_created_at (created_at)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS order_details (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			unit_price DECIMAL(18, 2) NOT NULL,
			CHECK (quantity > 0),
			INDEX idx_order_details_order_id (order_id),
			FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			action VARCHAR(64) NOT NULL,
			details TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_audit_log_created_at (created_at)
		) ENGINE=InnoDB`,
	},
}

// OpenMySQL connects with parseTime and UTC forced on, whatever the DSN says.
func OpenMySQL(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	applyPool(db, pool)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
