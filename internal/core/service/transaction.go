package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

// runInTransaction begins a transaction on uow, runs fn and commits. When fn
// fails the transaction is rolled back and fn's error is returned as is.
// Callers still defer uow.Close so a panic inside fn also rolls back.
func runInTransaction(ctx context.Context, uow port.UnitOfWork, logger *zap.Logger, fn func() error) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := fn(); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		}
		return err
	}

	return uow.Commit()
}

func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("kind", string(domain.KindOf(err))))
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindBusinessRule:
		logger.Warn(msg, fields...)
	default:
		logger.Error(msg, fields...)
	}
}

type noopInventoryCache struct{}

func (noopInventoryCache) GetInventory(context.Context, int64) (*domain.Inventory, bool, error) {
	return nil, false, nil
}

func (noopInventoryCache) InventoryVersion(context.Context, int64) (int64, error) { return 0, nil }

func (noopInventoryCache) SetInventory(context.Context, domain.Inventory, int64) error { return nil }

func (noopInventoryCache) InvalidateInventory(context.Context, ...int64) error { return nil }

func cacheOrNoop(cache port.InventoryCache) port.InventoryCache {
	if cache == nil {
		return noopInventoryCache{}
	}
	return cache
}

// invalidateInventory runs after commit; a stale cache entry must not turn a
// committed write into a failure.
func invalidateInventory(ctx context.Context, cache port.InventoryCache, logger *zap.Logger, productIDs ...int64) {
	if err := cache.InvalidateInventory(ctx, productIDs...); err != nil {
		logger.Warn("failed to invalidate inventory cache",
			zap.Int64s("product_ids", productIDs), zap.Error(err))
	}
}
