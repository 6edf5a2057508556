package port

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type IdempotencyStore interface {
	// SetIdempotency claims key, returns false if it was already claimed
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a claimed key so the request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}

type InventoryCache interface {
	// GetInventory returns ok=false on a cache miss
	GetInventory(ctx context.Context, productID int64) (inv *domain.Inventory, ok bool, err error)

	// InventoryVersion returns the product's cache version. Read it before
	// loading the row from the database and hand it to SetInventory.
	InventoryVersion(ctx context.Context, productID int64) (int64, error)

	// SetInventory stores inv only while version is still current, so a fill
	// that raced with an invalidation is dropped instead of hiding the write
	SetInventory(ctx context.Context, inv domain.Inventory, version int64) error

	// InvalidateInventory bumps the version of each product and drops its entry
	InvalidateInventory(ctx context.Context, productIDs ...int64) error
}
