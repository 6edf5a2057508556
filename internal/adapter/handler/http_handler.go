package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/service"
	"github.com/rl1809/order-fulfillment/internal/logger"
)

const requestIDHeader = "X-Request-ID"

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, requestID string, customerID int64, items []domain.OrderItem) (int64, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
}

type InventoryUseCase interface {
	CreateInventory(ctx context.Context, name string, stock int, unitPrice decimal.Decimal) (int64, error)
	UpdateInventory(ctx context.Context, productID int64, name string, stock int, unitPrice decimal.Decimal) error
	DeleteInventory(ctx context.Context, productID int64) error
	GetAllInventory(ctx context.Context) ([]domain.Inventory, error)
	GetInventoryByProductID(ctx context.Context, productID int64) (*domain.Inventory, error)
}

type AuditLogUseCase interface {
	GetAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

type HTTPHandler struct {
	orders    OrderUseCase
	inventory InventoryUseCase
	auditLogs AuditLogUseCase
	logger    *zap.Logger
}

type CreateOrderRequest struct {
	CustomerID int64              `json:"customer_id" binding:"required,gt=0"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

type InventoryRequest struct {
	ProductName string          `json:"product_name" binding:"required,max=255"`
	Stock       int             `json:"stock" binding:"min=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	ID          int64                 `json:"id"`
	CustomerID  int64                 `json:"customer_id"`
	CreatedAt   time.Time             `json:"created_at"`
	TotalAmount string                `json:"total_amount"`
	Details     []OrderDetailResponse `json:"details"`
}

type OrderDetailResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type InventoryResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	UnitPrice   string `json:"unit_price"`
}

type AuditLogResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewHTTPHandler(orders OrderUseCase, inventory InventoryUseCase, auditLogs AuditLogUseCase, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		orders:    orders,
		inventory: inventory,
		auditLogs: auditLogs,
		logger:    logger,
	}
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		orders := api.Group("/orders")
		orders.POST("", h.CreateOrder)
		orders.GET("", h.GetAllOrders)
		orders.GET("/:id", h.GetOrderByID)

		inventory := api.Group("/inventory")
		inventory.GET("", h.GetAllInventory)
		inventory.GET("/:productId", h.GetInventoryByProductID)
		inventory.POST("", h.CreateInventory)
		inventory.PUT("/:productId", h.UpdateInventory)
		inventory.DELETE("/:productId", h.DeleteInventory)

		api.GET("/audit-logs", h.GetAuditLogs)
	}
}

// RequestID stores the caller's X-Request-ID, or a generated one, on the
// context and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logger.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// CreateOrder handles POST /api/orders. A client supplied X-Request-ID
// makes the submission idempotent.
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	orderID, err := h.orders.PlaceOrder(c.Request.Context(), c.GetHeader(requestIDHeader), req.CustomerID, items)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/orders/"+strconv.FormatInt(orderID, 10))
	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

func (h *HTTPHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.GetAllOrders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetOrderByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) GetAllInventory(c *gin.Context) {
	items, err := h.inventory.GetAllInventory(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]InventoryResponse, len(items))
	for i, inv := range items {
		resp[i] = toInventoryResponse(inv)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetInventoryByProductID(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	inv, err := h.inventory.GetInventoryByProductID(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if inv == nil {
		h.writeError(c, domain.NewNotFound("product", productID))
		return
	}
	c.JSON(http.StatusOK, toInventoryResponse(*inv))
}

func (h *HTTPHandler) CreateInventory(c *gin.Context) {
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	productID, err := h.inventory.CreateInventory(c.Request.Context(), req.ProductName, req.Stock, req.UnitPrice)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/inventory/"+strconv.FormatInt(productID, 10))
	c.JSON(http.StatusCreated, gin.H{"product_id": productID})
}

func (h *HTTPHandler) UpdateInventory(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: err.Error()})
		return
	}

	if err := h.inventory.UpdateInventory(c.Request.Context(), productID, req.ProductName, req.Stock, req.UnitPrice); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteInventory(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := h.inventory.DeleteInventory(c.Request.Context(), productID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAuditLogs handles GET /api/audit-logs?limit=N. A missing limit uses
// the service default.
func (h *HTTPHandler) GetAuditLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	logs, err := h.auditLogs.GetAuditLogs(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = AuditLogResponse{ID: l.ID, Action: l.Action, Details: l.Details, CreatedAt: l.CreatedAt}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, service.ErrDuplicateRequest) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "duplicate request"})
		return
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case domain.KindBusinessRule:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func toOrderResponse(o *domain.Order) OrderResponse {
	details := make([]OrderDetailResponse, len(o.Details))
	for i, d := range o.Details {
		details[i] = OrderDetailResponse{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice.StringFixed(2),
			Subtotal:  d.Subtotal().StringFixed(2),
		}
	}
	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		CreatedAt:   o.CreatedAt,
		TotalAmount: o.TotalAmount().StringFixed(2),
		Details:     details,
	}
}

func toInventoryResponse(inv domain.Inventory) InventoryResponse {
	return InventoryResponse{
		ProductID:   inv.ProductID,
		ProductName: inv.ProductName,
		Stock:       inv.Stock,
		UnitPrice:   inv.UnitPrice.StringFixed(2),
	}
}
