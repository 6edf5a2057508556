package storage

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session is shared by a unit of work and its repositories. Statements go
// to the open transaction if there is one, otherwise to the pool.
type session struct {
	db      *sql.DB
	dialect Dialect
	conn    *sql.Conn
	tx      *sql.Tx
}

func (s *session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *session) lockClause() string {
	if s.tx != nil {
		return s.dialect.lockingRead
	}
	return ""
}

type UnitOfWork struct {
	session   *session
	logger    *zap.Logger
	inventory *InventoryRepository
	orders    *OrderRepository
	auditLogs *AuditLogRepository
	closed    bool
}

func NewUnitOfWork(db *sql.DB, dialect Dialect, logger *zap.Logger) *UnitOfWork {
	s := &session{db: db, dialect: dialect}
	return &UnitOfWork{
		session:   s,
		logger:    logger,
		inventory: &InventoryRepository{session: s},
		orders:    &OrderRepository{session: s},
		auditLogs: &AuditLogRepository{session: s},
	}
}

func NewUnitOfWorkFactory(db *sql.DB, dialect Dialect, logger *zap.Logger) port.UnitOfWorkFactory {
	return func() port.UnitOfWork {
		return NewUnitOfWork(db, dialect, logger)
	}
}

func (u *UnitOfWork) Inventory() port.InventoryRepository { return u.inventory }
func (u *UnitOfWork) Orders() port.OrderRepository        { return u.orders }
func (u *UnitOfWork) AuditLogs() port.AuditLogRepository  { return u.auditLogs }

// Begin reserves a pooled connection and opens a transaction on it. The
// transaction is detached from ctx cancellation: once started it ends only
// through Commit, Rollback or Close.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.closed {
		return domain.NewInvalidState("unit of work is closed")
	}
	if u.session.tx != nil {
		return domain.NewInvalidState("transaction is already started")
	}

	conn, err := u.session.db.Conn(ctx)
	if err != nil {
		return domain.Unexpected("acquire connection", err)
	}

	tx, err := conn.BeginTx(context.WithoutCancel(ctx), u.session.dialect.txOptions)
	if err != nil {
		conn.Close()
		return domain.Unexpected("begin transaction", err)
	}

	u.session.conn = conn
	u.session.tx = tx
	return nil
}

func (u *UnitOfWork) Commit() error {
	tx := u.session.tx
	if tx == nil {
		return domain.NewInvalidState("transaction is not started")
	}
	defer u.release()

	if err := tx.Commit(); err != nil {
		return domain.Unexpected("commit transaction", err)
	}
	return nil
}

func (u *UnitOfWork) Rollback() error {
	tx := u.session.tx
	if tx == nil {
		return domain.NewInvalidState("transaction is not started")
	}
	defer u.release()

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return domain.Unexpected("rollback transaction", err)
	}
	return nil
}

// Close rolls back a transaction left open by the caller before the
// connection goes back to the pool.
func (u *UnitOfWork) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true

	if u.session.tx == nil {
		return nil
	}
	u.logger.Warn("rolling back abandoned transaction")
	return u.Rollback()
}

func (u *UnitOfWork) release() {
	u.session.tx = nil
	if u.session.conn == nil {
		return
	}
	if err := u.session.conn.Close(); err != nil {
		u.logger.Error("failed to release connection", zap.Error(err))
	}
	u.session.conn = nil
}
