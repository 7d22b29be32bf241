package sqlite

import (
	"context"
	"fmt"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type orderQueryRepository struct {
	q querier
}

var _ app.OrderQueryRepository = (*orderQueryRepository)(nil)

const orderHeaderSelect = `
	SELECT o.order_id, m.name, o.order_date, o.status, d.city, d.street, d.zipcode
	FROM   orders o
	JOIN   members m    ON m.member_id = o.member_id
	JOIN   deliveries d ON d.delivery_id = o.delivery_id`

type orderHeaderRow struct {
	orderID               int64
	name                  string
	orderDate             string
	status                string
	city, street, zipcode string
}

func (r *orderHeaderRow) dest() []any {
	return []any{&r.orderID, &r.name, &r.orderDate, &r.status, &r.city, &r.street, &r.zipcode}
}

func (r *orderHeaderRow) toSimple() (app.SimpleOrderQueryDTO, error) {
	date, err := parseRFC3339(r.orderDate)
	if err != nil {
		return app.SimpleOrderQueryDTO{}, err
	}
	return app.SimpleOrderQueryDTO{
		OrderID:     r.orderID,
		Name:        r.name,
		OrderDate:   date,
		OrderStatus: domain.OrderStatus(r.status),
		Address:     domain.Address{City: r.city, Street: r.street, Zipcode: r.zipcode},
	}, nil
}

// FindOrders returns every order header; OrderItems is left nil for the
// caller to fill.
func (r *orderQueryRepository) FindOrders(ctx context.Context) ([]app.OrderQueryDTO, error) {
	headers, err := r.headers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]app.OrderQueryDTO, len(headers))
	for i, h := range headers {
		out[i] = app.OrderQueryDTO{
			OrderID:     h.OrderID,
			Name:        h.Name,
			OrderDate:   h.OrderDate,
			OrderStatus: h.OrderStatus,
			Address:     h.Address,
		}
	}
	return out, nil
}

func (r *orderQueryRepository) FindSimpleOrderDTOs(ctx context.Context) ([]app.SimpleOrderQueryDTO, error) {
	return r.headers(ctx)
}

func (r *orderQueryRepository) headers(ctx context.Context) ([]app.SimpleOrderQueryDTO, error) {
	const q = orderHeaderSelect + ` ORDER BY o.order_id`

	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query order headers: %w", err)
	}
	defer rows.Close()

	out := make([]app.SimpleOrderQueryDTO, 0)
	for rows.Next() {
		var row orderHeaderRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("sqlite: scan order header: %w", err)
		}
		dto, err := row.toSimple()
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query order headers: %w", err)
	}
	return out, nil
}

const orderLineSelect = `
	SELECT oi.order_id, i.name, oi.order_price, oi.count
	FROM   order_items oi
	JOIN   items i ON i.item_id = oi.item_id`

func (r *orderQueryRepository) FindOrderItems(ctx context.Context, orderID int64) ([]app.OrderItemQueryDTO, error) {
	const q = orderLineSelect + ` WHERE oi.order_id = ? ORDER BY oi.order_item_id`
	return r.lines(ctx, q, orderID)
}

// FindOrderItemsIn loads the lines of all orderIDs in one statement.
func (r *orderQueryRepository) FindOrderItemsIn(ctx context.Context, orderIDs []int64) ([]app.OrderItemQueryDTO, error) {
	if len(orderIDs) == 0 {
		return []app.OrderItemQueryDTO{}, nil
	}
	q := orderLineSelect + ` WHERE oi.order_id IN ` + inIDs + ` ORDER BY oi.order_id, oi.order_item_id`
	return r.lines(ctx, q, idArray(orderIDs))
}

func (r *orderQueryRepository) lines(ctx context.Context, q string, args ...any) ([]app.OrderItemQueryDTO, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query order lines: %w", err)
	}
	defer rows.Close()

	out := make([]app.OrderItemQueryDTO, 0)
	for rows.Next() {
		var dto app.OrderItemQueryDTO
		if err := rows.Scan(&dto.OrderID, &dto.ItemName, &dto.OrderPrice, &dto.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scan order line: %w", err)
		}
		out = append(out, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query order lines: %w", err)
	}
	return out, nil
}

// FindAllByDTOFlat returns one row per order line, ordered by order then line.
func (r *orderQueryRepository) FindAllByDTOFlat(ctx context.Context) ([]app.OrderFlatDTO, error) {
	const q = `
		SELECT o.order_id, m.name, o.order_date, o.status, d.city, d.street, d.zipcode,
		       i.name, oi.order_price, oi.count
		FROM   orders o
		JOIN   members m      ON m.member_id = o.member_id
		JOIN   deliveries d   ON d.delivery_id = o.delivery_id
		JOIN   order_items oi ON oi.order_id = o.order_id
		JOIN   items i        ON i.item_id = oi.item_id
		ORDER  BY o.order_id, oi.order_item_id`

	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query flat orders: %w", err)
	}
	defer rows.Close()

	out := make([]app.OrderFlatDTO, 0)
	for rows.Next() {
		var (
			header orderHeaderRow
			flat   app.OrderFlatDTO
		)
		dest := append(header.dest(), &flat.ItemName, &flat.OrderPrice, &flat.Count)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite: scan flat order: %w", err)
		}
		h, err := header.toSimple()
		if err != nil {
			return nil, err
		}
		flat.OrderID = h.OrderID
		flat.Name = h.Name
		flat.OrderDate = h.OrderDate
		flat.OrderStatus = h.OrderStatus
		flat.Address = h.Address
		out = append(out, flat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query flat orders: %w", err)
	}
	return out, nil
}
