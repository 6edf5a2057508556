package port

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type InventoryRepository interface {
	// GetByProductID returns nil, nil when the product does not exist.
	// Inside a transaction the read locks the row until commit or rollback.
	GetByProductID(ctx context.Context, productID int64) (*domain.Inventory, error)

	// GetAll returns every product ordered by product id.
	GetAll(ctx context.Context) ([]domain.Inventory, error)

	// Create inserts a product and returns its generated id.
	Create(ctx context.Context, inv domain.Inventory) (int64, error)

	// Update replaces name, stock and price. Updating a missing id is a no-op.
	Update(ctx context.Context, inv domain.Inventory) error

	// UpdateStock sets stock to an absolute value computed by the caller.
	UpdateStock(ctx context.Context, productID int64, newStock int) error

	Delete(ctx context.Context, productID int64) error
}

type OrderRepository interface {
	// Create writes the order and all of its details and returns the order id.
	Create(ctx context.Context, order *domain.Order) (int64, error)

	// GetByID returns nil, nil when the order does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// GetAll returns orders newest first with their details attached.
	GetAll(ctx context.Context) ([]domain.Order, error)
}

type AuditLogRepository interface {
	// Create appends an entry within whatever transaction is active.
	Create(ctx context.Context, entry domain.AuditLog) error

	// GetAll returns at most limit entries, newest first.
	GetAll(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

// UnitOfWork owns one transaction shared by the three repositories for the
// duration of a single logical operation. It must not be shared between
// concurrently running operations.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// Close rolls back a transaction that is still open and releases the
	// underlying connection. It is safe to call more than once.
	Close() error

	Inventory() InventoryRepository
	Orders() OrderRepository
	AuditLogs() AuditLogRepository
}

// UnitOfWorkFactory creates a fresh unit of work per operation.
type UnitOfWorkFactory func() UnitOfWork
