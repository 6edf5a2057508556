package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one requested line of an order before it is priced.
type OrderItem struct {
	ProductID int64
	Quantity  int
}

// OrderDetail is a priced line owned by an Order. UnitPrice is the product
// price at the moment the order was placed.
type OrderDetail struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

func (d OrderDetail) Subtotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

type Order struct {
	ID         int64
	CustomerID int64
	CreatedAt  time.Time
	Details    []OrderDetail
}

func NewOrder(customerID int64, now time.Time) *Order {
	return &Order{
		CustomerID: customerID,
		CreatedAt:  now.UTC(),
	}
}

func (o *Order) AddDetail(productID int64, quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return NewBusinessRule("quantity for product %d must be positive, got %d", productID, quantity)
	}
	o.Details = append(o.Details, OrderDetail{
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

// AssignID sets the order id once storage has generated it and stamps it
// onto every detail line.
func (o *Order) AssignID(id int64) {
	o.ID = id
	for i := range o.Details {
		o.Details[i].OrderID = id
	}
}

func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, d := range o.Details {
		total = total.Add(d.Subtotal())
	}
	return total
}

func (o *Order) Validate() error {
	if len(o.Details) == 0 {
		return ErrEmptyOrder
	}
	return nil
}
