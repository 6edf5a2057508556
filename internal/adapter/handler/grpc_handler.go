package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/service"
)

type GRPCHandler struct {
	orders   OrderUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewGRPCHandler(orders OrderUseCase, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{
		orders:   orders,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *CreateOrderRPCRequest) (*CreateOrderRPCResponse, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	orderID, err := h.orders.PlaceOrder(ctx, req.RequestID, req.CustomerID, items)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &CreateOrderRPCResponse{OrderID: orderID}, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *GetOrderRPCRequest) (*OrderMessage, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	order, err := h.orders.GetOrderByID(ctx, req.ID)
	if err != nil {
		return nil, h.toStatus(err)
	}

	details := make([]OrderDetailMessage, len(order.Details))
	for i, d := range order.Details {
		details[i] = OrderDetailMessage{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice.StringFixed(2),
		}
	}
	return &OrderMessage{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		CreatedAt:   order.CreatedAt.UTC().Format(time.RFC3339Nano),
		TotalAmount: order.TotalAmount().StringFixed(2),
		Details:     details,
	}, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	if errors.Is(err, service.ErrDuplicateRequest) {
		return status.Error(codes.AlreadyExists, "duplicate request")
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindBusinessRule:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		h.logger.Error("rpc failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
