package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

type OrderService struct {
	newUnitOfWork port.UnitOfWorkFactory
	cache         port.InventoryCache
	idempotency   port.IdempotencyStore
	logger        *zap.Logger
	now           func() time.Time
}

// NewOrderService wires the order use cases. cache and idempotency may be
// nil, which disables inventory cache invalidation and request dedupe.
func NewOrderService(
	newUnitOfWork port.UnitOfWorkFactory,
	cache port.InventoryCache,
	idempotency port.IdempotencyStore,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		newUnitOfWork: newUnitOfWork,
		cache:         cacheOrNoop(cache),
		idempotency:   idempotency,
		logger:        logger,
		now:           time.Now,
	}
}

// PlaceOrder is CreateOrder guarded by a caller supplied request id. A
// repeated id is rejected with ErrDuplicateRequest; a failed attempt frees
// the id again so the caller may retry.
func (s *OrderService) PlaceOrder(ctx context.Context, requestID string, customerID int64, items []domain.OrderItem) (int64, error) {
	if requestID == "" || s.idempotency == nil {
		return s.CreateOrder(ctx, customerID, items)
	}

	key := fmt.Sprintf("order:%s", requestID)

	ok, err := s.idempotency.SetIdempotency(ctx, key)
	if err != nil {
		return 0, domain.Unexpected("idempotency check", err)
	}
	if !ok {
		return 0, ErrDuplicateRequest
	}

	orderID, err := s.CreateOrder(ctx, customerID, items)
	if err != nil {
		if relErr := s.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), key); relErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return 0, err
	}
	return orderID, nil
}

// CreateOrder debits stock for every item, stores the order with its
// details and appends an audit entry, all in one transaction. Items are
// processed in the given order and each stock write happens immediately;
// a failure on any line rolls back the lines before it.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int64, items []domain.OrderItem) (int64, error) {
	uow := s.newUnitOfWork()
	defer uow.Close()

	var order *domain.Order
	err := runInTransaction(ctx, uow, s.logger, func() error {
		if len(items) == 0 {
			return domain.ErrEmptyOrder
		}

		order = domain.NewOrder(customerID, s.now())

		for _, item := range items {
			product, err := uow.Inventory().GetByProductID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.NewNotFound("product", item.ProductID)
			}

			remaining, err := product.Remaining(item.Quantity)
			if err != nil {
				return err
			}

			if err := uow.Inventory().UpdateStock(ctx, item.ProductID, remaining); err != nil {
				return err
			}

			if err := order.AddDetail(item.ProductID, item.Quantity, product.UnitPrice); err != nil {
				return err
			}
		}

		if _, err := uow.Orders().Create(ctx, order); err != nil {
			return err
		}

		return uow.AuditLogs().Create(ctx, domain.OrderCreatedLog(order, len(items), s.now()))
	})
	if err != nil {
		logFailure(s.logger, "create order failed", err,
			zap.Int64("customer_id", customerID), zap.Int("items", len(items)))
		return 0, err
	}

	productIDs := make([]int64, len(order.Details))
	for i, d := range order.Details {
		productIDs[i] = d.ProductID
	}
	invalidateInventory(ctx, s.cache, s.logger, productIDs...)

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.Int("items", len(items)),
		zap.String("total", order.TotalAmount().StringFixed(2)),
	)

	return order.ID, nil
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	uow := s.newUnitOfWork()
	defer uow.Close()

	return uow.Orders().GetAll(ctx)
}

func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	uow := s.newUnitOfWork()
	defer uow.Close()

	order, err := uow.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NewNotFound("order", id)
	}
	return order, nil
}
