package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "rentalhub/internal/config"
	"rentalhub/internal/domain/models"
)

type ItemRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

func (r ItemRepository) WithTx(tx *sql.Tx) ItemRepository {
	r.Tx = tx
	return r
}

func (r ItemRepository) conn() (DBTX, error) {
	if r.Tx != nil {
		return r.Tx, nil
	}
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, fmt.Errorf("database not connected")
}

func (r ItemRepository) GetByID(ctx context.Context, id string) (models.Item, error) {
	q, err := r.conn()
	if err != nil {
		return models.Item{}, err
	}
	var it models.Item
	err = q.QueryRowContext(ctx, `
		SELECT id, owner_id, product, category, location, price_per_day, item_image, quantity, available_quantity
		FROM items WHERE id=? LIMIT 1`, id).Scan(
		&it.ID, &it.OwnerID, &it.Product, &it.Category, &it.Location,
		&it.PricePerDay, &it.ItemImage, &it.Quantity, &it.AvailableQuantity,
	)
	if err != nil {
		return models.Item{}, err
	}
	return it, nil
}

// IncrementAvailable adds one unit back to inventory and returns the new
// available quantity.
func (r ItemRepository) IncrementAvailable(ctx context.Context, id string) (int, error) {
	q, err := r.conn()
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `UPDATE items SET available_quantity = available_quantity + 1 WHERE id=?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment available quantity: %w", err)
	}
	if err := expectOneRow(res, sql.ErrNoRows); err != nil {
		return 0, err
	}
	var available int
	if err := q.QueryRowContext(ctx, `SELECT available_quantity FROM items WHERE id=?`, id).Scan(&available); err != nil {
		return 0, fmt.Errorf("read available quantity: %w", err)
	}
	return available, nil
}
