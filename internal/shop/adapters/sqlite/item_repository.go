package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type itemRepository struct {
	q querier
}

var _ app.ItemRepository = (*itemRepository)(nil)

func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	if item.ID == 0 {
		return r.insert(ctx, item)
	}

	const q = `
		UPDATE items
		SET    dtype = ?, name = ?, price = ?, stock_quantity = ?,
		       author = ?, isbn = ?, artist = ?, etc = ?, director = ?, actor = ?
		WHERE  item_id = ?`

	args := append([]any{string(item.Kind()), item.Name, item.Price, item.StockQuantity}, itemDetailArgs(item)...)
	res, err := r.q.ExecContext(ctx, q, append(args, item.ID)...)
	if err != nil {
		return fmt.Errorf("sqlite: update item %d: %w", item.ID, err)
	}
	return requireAffected(res, "item", item.ID)
}

func (r *itemRepository) insert(ctx context.Context, item *domain.Item) error {
	const q = `
		INSERT INTO items
			(dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := append([]any{string(item.Kind()), item.Name, item.Price, item.StockQuantity}, itemDetailArgs(item)...)
	res, err := r.q.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: save item %q: %w", item.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: save item %q: %w", item.Name, err)
	}
	item.ID = id
	return nil
}

func (r *itemRepository) FindOne(ctx context.Context, id int64) (*domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items i WHERE i.item_id = ?`

	var row itemRow
	err := scanRow(r.q.QueryRowContext(ctx, q, id), &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, app.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find item %d: %w", id, err)
	}
	return row.toDomain()
}

func (r *itemRepository) FindAll(ctx context.Context) ([]*domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items i ORDER BY i.item_id`
	return r.list(ctx, q)
}

// FindByIDs returns the items among ids that exist, ordered by id. An empty
// ids slice issues no statement.
func (r *itemRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Item, error) {
	if len(ids) == 0 {
		return []*domain.Item{}, nil
	}
	q := `SELECT ` + itemColumns + ` FROM items i WHERE i.item_id IN ` + inIDs + ` ORDER BY i.item_id`
	return r.list(ctx, q, idArray(ids))
}

func (r *itemRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Item, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		var row itemRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("sqlite: scan item: %w", err)
		}
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list items: %w", err)
	}
	return items, nil
}
