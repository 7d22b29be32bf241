package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type orderRepository struct {
	q querier
}

var _ app.OrderRepository = (*orderRepository)(nil)

// Save inserts the delivery, the order and every line, filling in the
// generated ids. Line items must already be persisted.
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	const (
		insertDelivery = `
			INSERT INTO deliveries (city, street, zipcode, status)
			VALUES (?, ?, ?, ?)`
		insertOrder = `
			INSERT INTO orders (member_id, delivery_id, order_date, status)
			VALUES (?, ?, ?, ?)`
		insertLine = `
			INSERT INTO order_items (order_id, item_id, order_price, count)
			VALUES (?, ?, ?, ?)`
	)

	if order.Delivery == nil {
		return fmt.Errorf("sqlite: save order: delivery: %w", domain.ErrNotHydrated)
	}

	d := order.Delivery
	deliveryID, err := r.insert(ctx, insertDelivery, d.Address.City, d.Address.Street, d.Address.Zipcode, string(d.Status))
	if err != nil {
		return fmt.Errorf("sqlite: save delivery: %w", err)
	}
	d.ID = deliveryID
	order.DeliveryID = deliveryID

	orderID, err := r.insert(ctx, insertOrder, order.MemberID, deliveryID, formatTime(order.OrderDate), string(order.Status))
	if err != nil {
		return fmt.Errorf("sqlite: save order for member %d: %w", order.MemberID, err)
	}
	order.ID = orderID

	for _, oi := range order.OrderItems {
		lineID, err := r.insert(ctx, insertLine, orderID, oi.ItemID, oi.OrderPrice, oi.Count)
		if err != nil {
			return fmt.Errorf("sqlite: save order %d line for item %d: %w", orderID, oi.ItemID, err)
		}
		oi.ID = lineID
		oi.OrderID = orderID
	}
	return nil
}

func (r *orderRepository) insert(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	const q = `UPDATE orders SET status = ? WHERE order_id = ?`

	res, err := r.q.ExecContext(ctx, q, string(order.Status), order.ID)
	if err != nil {
		return fmt.Errorf("sqlite: update order %d status: %w", order.ID, err)
	}
	return requireAffected(res, "order", order.ID)
}

func (r *orderRepository) FindOne(ctx context.Context, id int64) (*domain.Order, error) {
	const q = `
		SELECT ` + orderColumns + `, ` + deliveryColumns + `
		FROM   orders o
		JOIN   deliveries d ON d.delivery_id = o.delivery_id
		WHERE  o.order_id = ?`

	var (
		orow orderRow
		drow deliveryRow
	)
	err := scanRow(r.q.QueryRowContext(ctx, q, id), &orow, &drow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, app.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find order %d: %w", id, err)
	}

	order, err := orow.toDomain()
	if err != nil {
		return nil, err
	}
	order.Delivery = drow.toDomain()

	lines, err := r.FindOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.OrderItems = lines
	return order, nil
}

// FindAll filters by exact status and by member name substring. The members
// join only serves the filter; no member is hydrated.
func (r *orderRepository) FindAll(ctx context.Context, search app.OrderSearch) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if search.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, string(search.Status))
	}
	if search.MemberName != "" {
		where = append(where, `m.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search.MemberName)+"%")
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + orderColumns + ` FROM orders o JOIN members m ON m.member_id = o.member_id`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY o.order_id")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var row orderRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		order, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) FindDelivery(ctx context.Context, id int64) (*domain.Delivery, error) {
	const q = `SELECT ` + deliveryColumns + ` FROM deliveries d WHERE d.delivery_id = ?`

	var row deliveryRow
	err := scanRow(r.q.QueryRowContext(ctx, q, id), &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delivery %d: %w", id, app.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find delivery %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *orderRepository) FindOrderItems(ctx context.Context, orderID int64) ([]*domain.OrderItem, error) {
	const q = `
		SELECT ` + orderItemColumns + `
		FROM   order_items oi
		WHERE  oi.order_id = ?
		ORDER  BY oi.order_item_id`
	return r.listLines(ctx, q, orderID)
}

// FindOrderItemsByOrderIDs loads the lines of every order in orderIDs with a
// single IN query, ordered by order then line id.
func (r *orderRepository) FindOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]*domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []*domain.OrderItem{}, nil
	}
	q := `
		SELECT ` + orderItemColumns + `
		FROM   order_items oi
		WHERE  oi.order_id IN ` + inIDs + `
		ORDER  BY oi.order_id, oi.order_item_id`
	return r.listLines(ctx, q, idArray(orderIDs))
}

func (r *orderRepository) listLines(ctx context.Context, q string, args ...any) ([]*domain.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list order items: %w", err)
	}
	defer rows.Close()

	lines := make([]*domain.OrderItem, 0)
	for rows.Next() {
		var row orderItemRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("sqlite: scan order item: %w", err)
		}
		lines = append(lines, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list order items: %w", err)
	}
	return lines, nil
}

// FindAllWithMemberDelivery fetch-joins member and delivery. SQLite treats a
// negative LIMIT as unlimited.
func (r *orderRepository) FindAllWithMemberDelivery(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	const q = `
		SELECT ` + orderColumns + `, ` + memberColumns + `, ` + deliveryColumns + `
		FROM   orders o
		JOIN   members m    ON m.member_id = o.member_id
		JOIN   deliveries d ON d.delivery_id = o.delivery_id
		ORDER  BY o.order_id
		LIMIT  ? OFFSET ?`

	rows, err := r.q.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders with member and delivery: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var (
			orow orderRow
			mrow memberRow
			drow deliveryRow
		)
		if err := scanRow(rows, &orow, &mrow, &drow); err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		order, err := orow.toDomain()
		if err != nil {
			return nil, err
		}
		order.Member = mrow.toDomain()
		order.Delivery = drow.toDomain()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list orders with member and delivery: %w", err)
	}
	return orders, nil
}

// FindAllWithItem fetch-joins every relation. The join yields one row per
// line; rows are folded back into one aggregate per order, and an item that
// appears in several orders is a single shared *domain.Item.
func (r *orderRepository) FindAllWithItem(ctx context.Context) ([]*domain.Order, error) {
	const q = `
		SELECT ` + orderColumns + `, ` + memberColumns + `, ` + deliveryColumns + `,
		       ` + orderItemColumns + `, ` + itemColumns + `
		FROM   orders o
		JOIN   members m      ON m.member_id = o.member_id
		JOIN   deliveries d   ON d.delivery_id = o.delivery_id
		JOIN   order_items oi ON oi.order_id = o.order_id
		JOIN   items i        ON i.item_id = oi.item_id
		ORDER  BY o.order_id, oi.order_item_id`

	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders with items: %w", err)
	}
	defer rows.Close()

	var (
		orders    = make([]*domain.Order, 0)
		byOrderID = make(map[int64]*domain.Order)
		byItemID  = make(map[int64]*domain.Item)
	)
	for rows.Next() {
		var (
			orow  orderRow
			mrow  memberRow
			drow  deliveryRow
			oirow orderItemRow
			irow  itemRow
		)
		if err := scanRow(rows, &orow, &mrow, &drow, &oirow, &irow); err != nil {
			return nil, fmt.Errorf("sqlite: scan order with items: %w", err)
		}

		order, ok := byOrderID[orow.id]
		if !ok {
			order, err = orow.toDomain()
			if err != nil {
				return nil, err
			}
			order.Member = mrow.toDomain()
			order.Delivery = drow.toDomain()
			byOrderID[order.ID] = order
			orders = append(orders, order)
		}

		item, ok := byItemID[irow.id]
		if !ok {
			item, err = irow.toDomain()
			if err != nil {
				return nil, err
			}
			byItemID[item.ID] = item
		}

		line := oirow.toDomain()
		line.Item = item
		order.OrderItems = append(order.OrderItems, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list orders with items: %w", err)
	}
	return orders, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
