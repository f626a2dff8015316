package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

func CreateItem(ctx context.Context, q database.Querier, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO item (dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING item_id`

	args := append([]any{string(item.Kind), item.Name, item.Price, item.StockQuantity}, itemPayload(item)...)
	if err := q.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	return nil
}

func GetItem(ctx context.Context, q database.Querier, id int64) (*models.Item, error) {
	return getItem(ctx, q, id, false)
}

// getItem loads one item, locking its row for the rest of the transaction
// when forUpdate is set.
func getItem(ctx context.Context, q database.Querier, id int64, forUpdate bool) (*models.Item, error) {
	var row itemRow

	query := `SELECT ` + itemColumns + ` FROM item i WHERE i.item_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	if err := q.QueryRowContext(ctx, query, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return row.item(), nil
}

// UpdateItem overwrites the editable catalog fields of an existing item.
func UpdateItem(ctx context.Context, q database.Querier, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE item
		SET name = $1, price = $2, stock_quantity = $3,
		    author = $4, isbn = $5, artist = $6, etc = $7, director = $8, actor = $9
		WHERE item_id = $10 AND dtype = $11`

	args := append([]any{item.Name, item.Price, item.StockQuantity}, itemPayload(item)...)
	args = append(args, item.ID, string(item.Kind))

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrItemNotFound
	}

	return nil
}

func updateItemStock(ctx context.Context, q database.Querier, id int64, stock int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE item SET stock_quantity = $1 WHERE item_id = $2`,
		stock, id)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrItemNotFound
	}

	return nil
}

func ListItems(ctx context.Context, q database.Querier, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM item`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + itemColumns + ` FROM item i ORDER BY i.item_id LIMIT $1 OFFSET $2`

	rows, err := q.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var row itemRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *row.item())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(items, total, page, pageSize), nil
}
