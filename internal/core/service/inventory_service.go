package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

type InventoryService struct {
	newUnitOfWork port.UnitOfWorkFactory
	cache         port.InventoryCache
	group         singleflight.Group
	logger        *zap.Logger
	now           func() time.Time
}

func NewInventoryService(newUnitOfWork port.UnitOfWorkFactory, cache port.InventoryCache, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		newUnitOfWork: newUnitOfWork,
		cache:         cacheOrNoop(cache),
		logger:        logger,
		now:           time.Now,
	}
}

func (s *InventoryService) CreateInventory(ctx context.Context, name string, stock int, unitPrice decimal.Decimal) (int64, error) {
	inv := domain.Inventory{ProductName: name, Stock: stock, UnitPrice: unitPrice}
	if err := inv.Validate(); err != nil {
		return 0, err
	}

	uow := s.newUnitOfWork()
	defer uow.Close()

	err := runInTransaction(ctx, uow, s.logger, func() error {
		id, err := uow.Inventory().Create(ctx, inv)
		if err != nil {
			return err
		}
		inv.ProductID = id

		return uow.AuditLogs().Create(ctx, domain.InventoryCreatedLog(inv, s.now()))
	})
	if err != nil {
		logFailure(s.logger, "create inventory failed", err, zap.String("product_name", name))
		return 0, err
	}

	s.logger.Info("inventory created", zap.Int64("product_id", inv.ProductID), zap.String("product_name", name))
	return inv.ProductID, nil
}

func (s *InventoryService) UpdateInventory(ctx context.Context, productID int64, name string, stock int, unitPrice decimal.Decimal) error {
	inv := domain.Inventory{ProductID: productID, ProductName: name, Stock: stock, UnitPrice: unitPrice}
	if err := inv.Validate(); err != nil {
		return err
	}

	uow := s.newUnitOfWork()
	defer uow.Close()

	err := runInTransaction(ctx, uow, s.logger, func() error {
		existing, err := uow.Inventory().GetByProductID(ctx, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NewNotFound("product", productID)
		}

		if err := uow.Inventory().Update(ctx, inv); err != nil {
			return err
		}

		return uow.AuditLogs().Create(ctx, domain.InventoryUpdatedLog(inv, s.now()))
	})
	if err != nil {
		logFailure(s.logger, "update inventory failed", err, zap.Int64("product_id", productID))
		return err
	}

	invalidateInventory(ctx, s.cache, s.logger, productID)
	s.logger.Info("inventory updated", zap.Int64("product_id", productID))
	return nil
}

func (s *InventoryService) DeleteInventory(ctx context.Context, productID int64) error {
	uow := s.newUnitOfWork()
	defer uow.Close()

	err := runInTransaction(ctx, uow, s.logger, func() error {
		existing, err := uow.Inventory().GetByProductID(ctx, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NewNotFound("product", productID)
		}

		if err := uow.Inventory().Delete(ctx, productID); err != nil {
			return err
		}

		return uow.AuditLogs().Create(ctx, domain.InventoryDeletedLog(productID, existing.ProductName, s.now()))
	})
	if err != nil {
		logFailure(s.logger, "delete inventory failed", err, zap.Int64("product_id", productID))
		return err
	}

	invalidateInventory(ctx, s.cache, s.logger, productID)
	s.logger.Info("inventory deleted", zap.Int64("product_id", productID))
	return nil
}

func (s *InventoryService) GetAllInventory(ctx context.Context) ([]domain.Inventory, error) {
	uow := s.newUnitOfWork()
	defer uow.Close()

	return uow.Inventory().GetAll(ctx)
}

// GetInventoryByProductID returns nil, nil for an unknown product. Reads go
// through the cache; concurrent misses for one product share a single
// database read, which outlives any one caller's cancellation.
func (s *InventoryService) GetInventoryByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	cached, ok, err := s.cache.GetInventory(ctx, productID)
	if err != nil {
		s.logger.Warn("inventory cache read failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatInt(productID, 10), func() (any, error) {
		return s.loadInventory(loadCtx, productID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	inv := res.Val.(*domain.Inventory)
	if inv == nil {
		return nil, nil
	}
	shared := *inv
	return &shared, nil
}

// loadInventory reads the cache version before the row, so an invalidation
// committed after the read makes the fill a no-op.
func (s *InventoryService) loadInventory(ctx context.Context, productID int64) (*domain.Inventory, error) {
	version, err := s.cache.InventoryVersion(ctx, productID)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("inventory cache version read failed", zap.Int64("product_id", productID), zap.Error(err))
	}

	uow := s.newUnitOfWork()
	defer uow.Close()

	inv, err := uow.Inventory().GetByProductID(ctx, productID)
	if err != nil || inv == nil {
		return inv, err
	}

	if cacheable {
		if err := s.cache.SetInventory(ctx, *inv, version); err != nil {
			s.logger.Warn("inventory cache write failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return inv, nil
}
