package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

const selectInventory = `SELECT product_id, product_name, stock, unit_price FROM inventory`

type InventoryRepository struct {
	session *session
}

func (r *InventoryRepository) GetByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	query := selectInventory + ` WHERE product_id = ?` + r.session.lockClause()

	var inv domain.Inventory
	err := r.session.querier().QueryRowContext(ctx, query, productID).
		Scan(&inv.ProductID, &inv.ProductName, &inv.Stock, &inv.UnitPrice)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Unexpected("query inventory", err)
	}
	return &inv, nil
}

func (r *InventoryRepository) GetAll(ctx context.Context) ([]domain.Inventory, error) {
	rows, err := r.session.querier().QueryContext(ctx, selectInventory+` ORDER BY product_id`)
	if err != nil {
		return nil, domain.Unexpected("query inventory", err)
	}
	defer rows.Close()

	items := make([]domain.Inventory, 0)
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.ProductID, &inv.ProductName, &inv.Stock, &inv.UnitPrice); err != nil {
			return nil, domain.Unexpected("scan inventory", err)
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected("iterate inventory", err)
	}
	return items, nil
}

func (r *InventoryRepository) Create(ctx context.Context, inv domain.Inventory) (int64, error) {
	result, err := r.session.querier().ExecContext(ctx, `
		INSERT INTO inventory (product_name, stock, unit_price)
		VALUES (?, ?, ?)`,
		inv.ProductName, inv.Stock, inv.UnitPrice,
	)
	if err != nil {
		return 0, domain.Unexpected("insert inventory", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, domain.Unexpected("read inventory id", err)
	}
	return id, nil
}

func (r *InventoryRepository) Update(ctx context.Context, inv domain.Inventory) error {
	_, err := r.session.querier().ExecContext(ctx, `
		UPDATE inventory
		SET product_name = ?, stock = ?, unit_price = ?
		WHERE product_id = ?`,
		inv.ProductName, inv.Stock, inv.UnitPrice, inv.ProductID,
	)
	if err != nil {
		return domain.Unexpected("update inventory", err)
	}
	return nil
}

func (r *InventoryRepository) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	_, err := r.session.querier().ExecContext(ctx,
		`UPDATE inventory SET stock = ? WHERE product_id = ?`, newStock, productID)
	if err != nil {
		return domain.Unexpected("update stock", err)
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, productID int64) error {
	_, err := r.session.querier().ExecContext(ctx,
		`DELETE FROM inventory WHERE product_id = ?`, productID)
	if err != nil {
		return domain.Unexpected("delete inventory", err)
	}
	return nil
}
