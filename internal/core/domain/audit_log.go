package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionInventoryCreated = "INVENTORY_CREATED"
	ActionInventoryUpdated = "INVENTORY_UPDATED"
	ActionInventoryDeleted = "INVENTORY_DELETED"
	ActionOrderCreated     = "ORDER_CREATED"
)

const DefaultAuditLogLimit = 100

// AuditLog is an append-only record of a completed business action.
type AuditLog struct {
	ID        int64
	Action    string
	Details   string
	CreatedAt time.Time
}

func NewAuditLog(action, details string, now time.Time) AuditLog {
	return AuditLog{
		Action:    action,
		Details:   details,
		CreatedAt: now.UTC(),
	}
}

func InventoryCreatedLog(inv Inventory, now time.Time) AuditLog {
	return NewAuditLog(ActionInventoryCreated, inventoryDetails(inv), now)
}

func InventoryUpdatedLog(inv Inventory, now time.Time) AuditLog {
	return NewAuditLog(ActionInventoryUpdated, inventoryDetails(inv), now)
}

func InventoryDeletedLog(productID int64, productName string, now time.Time) AuditLog {
	return NewAuditLog(ActionInventoryDeleted,
		fmt.Sprintf("ProductId=%d, Name=%s", productID, productName), now)
}

func OrderCreatedLog(order *Order, itemCount int, now time.Time) AuditLog {
	return NewAuditLog(ActionOrderCreated,
		fmt.Sprintf("OrderId=%d, CustomerId=%d, Items=%d, Total=%s",
			order.ID, order.CustomerID, itemCount, formatAmount(order.TotalAmount())), now)
}

func inventoryDetails(inv Inventory) string {
	return fmt.Sprintf("ProductId=%d, Name=%s, Stock=%d, Price=%s",
		inv.ProductID, inv.ProductName, inv.Stock, formatAmount(inv.UnitPrice))
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
