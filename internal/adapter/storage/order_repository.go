package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

// batchSize caps the rows per multi-row insert and the ids per IN list,
// keeping statements under the placeholder limit of both drivers.
var batchSize = 500

type OrderRepository struct {
	session *session
}

// Create inserts the parent row first; detail rows need its generated id
// and are written afterwards in multi-row inserts of up to batchSize rows.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (int64, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	q := r.session.querier()

	result, err := q.ExecContext(ctx,
		`INSERT INTO orders (customer_id, created_at) VALUES (?, ?)`,
		order.CustomerID, order.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, domain.Unexpected("insert order", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, domain.Unexpected("read order id", err)
	}
	order.AssignID(id)

	for start := 0; start < len(order.Details); start += batchSize {
		batch := order.Details[start:min(start+batchSize, len(order.Details))]

		args := make([]any, 0, len(batch)*4)
		for _, d := range batch {
			args = append(args, d.OrderID, d.ProductID, d.Quantity, d.UnitPrice)
		}
		values := strings.TrimSuffix(strings.Repeat("(?, ?, ?, ?), ", len(batch)), ", ")

		_, err = q.ExecContext(ctx,
			`INSERT INTO order_details (order_id, product_id, quantity, unit_price) VALUES `+values,
			args...,
		)
		if err != nil {
			return 0, domain.Unexpected("insert order details", err)
		}
	}

	return id, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := r.session.querier().QueryRowContext(ctx,
		`SELECT id, customer_id, created_at FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.CustomerID, &order.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Unexpected("query order", err)
	}
	order.CreatedAt = order.CreatedAt.UTC()

	details, err := r.detailsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Details = details[id]

	return &order, nil
}

// GetAll loads the details with one query per batchSize orders and hands
// them out to their parents in memory.
func (r *OrderRepository) GetAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.session.querier().QueryContext(ctx,
		`SELECT id, customer_id, created_at FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, domain.Unexpected("query orders", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CreatedAt); err != nil {
			return nil, domain.Unexpected("scan order", err)
		}
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected("iterate orders", err)
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	details, err := r.detailsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Details = details[orders[i].ID]
	}

	return orders, nil
}

func (r *OrderRepository) detailsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderDetail, error) {
	byOrder := make(map[int64][]domain.OrderDetail, len(orderIDs))
	for start := 0; start < len(orderIDs); start += batchSize {
		batch := orderIDs[start:min(start+batchSize, len(orderIDs))]
		if err := r.loadDetails(ctx, batch, byOrder); err != nil {
			return nil, err
		}
	}
	return byOrder, nil
}

func (r *OrderRepository) loadDetails(ctx context.Context, orderIDs []int64, byOrder map[int64][]domain.OrderDetail) error {
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := r.session.querier().QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_details
		WHERE order_id IN (`+placeholders(len(orderIDs))+`)
		ORDER BY order_id, id`,
		args...,
	)
	if err != nil {
		return domain.Unexpected("query order details", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.OrderDetail
		if err := rows.Scan(&d.OrderID, &d.ProductID, &d.Quantity, &d.UnitPrice); err != nil {
			return domain.Unexpected("scan order detail", err)
		}
		byOrder[d.OrderID] = append(byOrder[d.OrderID], d)
	}
	if err := rows.Err(); err != nil {
		return domain.Unexpected("iterate order details", err)
	}
	return nil
}
