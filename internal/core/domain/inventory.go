package domain

import "github.com/shopspring/decimal"

type Inventory struct {
	ProductID   int64
	ProductName string
	Stock       int
	UnitPrice   decimal.Decimal
}

// Validate checks the invariants a stored product must hold.
func (i Inventory) Validate() error {
	if i.ProductName == "" {
		return NewBusinessRule("product name must not be empty")
	}
	if i.Stock < 0 {
		return NewBusinessRule("stock must not be negative, got %d", i.Stock)
	}
	if i.UnitPrice.IsNegative() {
		return NewBusinessRule("unit price must not be negative, got %s", i.UnitPrice.String())
	}
	return nil
}

// Remaining returns the stock left after taking quantity, or a business
// rule error when the product cannot cover it.
func (i Inventory) Remaining(quantity int) (int, error) {
	if quantity <= 0 {
		return 0, NewBusinessRule("quantity for product %d must be positive, got %d", i.ProductID, quantity)
	}
	if i.Stock < quantity {
		return 0, NewBusinessRule("Insufficient stock for %s. Available: %d, Requested: %d",
			i.ProductName, i.Stock, quantity)
	}
	return i.Stock - quantity, nil
}
