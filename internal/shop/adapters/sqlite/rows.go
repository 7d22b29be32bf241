package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

// Column lists are aliased so joined queries can concatenate them. Each row
// type below scans exactly its column list, in the same order.
const (
	memberColumns    = "m.member_id, m.name, m.city, m.street, m.zipcode"
	itemColumns      = "i.item_id, i.dtype, i.name, i.price, i.stock_quantity, i.author, i.isbn, i.artist, i.etc, i.director, i.actor"
	deliveryColumns  = "d.delivery_id, d.city, d.street, d.zipcode, d.status"
	orderColumns     = "o.order_id, o.member_id, o.delivery_id, o.order_date, o.status"
	orderItemColumns = "oi.order_item_id, oi.order_id, oi.item_id, oi.order_price, oi.count"
)

type scanner interface {
	Scan(dest ...any) error
}

// scanRow scans one row into the concatenated destinations of rows.
func scanRow(s scanner, rows ...interface{ dest() []any }) error {
	var dest []any
	for _, r := range rows {
		dest = append(dest, r.dest()...)
	}
	return s.Scan(dest...)
}

type memberRow struct {
	id                    int64
	name                  string
	city, street, zipcode string
}

func (r *memberRow) dest() []any {
	return []any{&r.id, &r.name, &r.city, &r.street, &r.zipcode}
}

func (r *memberRow) toDomain() *domain.Member {
	return &domain.Member{
		ID:      r.id,
		Name:    r.name,
		Address: domain.Address{City: r.city, Street: r.street, Zipcode: r.zipcode},
	}
}

type itemRow struct {
	id              int64
	dtype           string
	name            string
	price           int
	stockQuantity   int
	author, isbn    sql.NullString
	artist, etc     sql.NullString
	director, actor sql.NullString
}

func (r *itemRow) dest() []any {
	return []any{
		&r.id, &r.dtype, &r.name, &r.price, &r.stockQuantity,
		&r.author, &r.isbn, &r.artist, &r.etc, &r.director, &r.actor,
	}
}

func (r *itemRow) toDomain() (*domain.Item, error) {
	item := &domain.Item{
		ID:            r.id,
		Name:          r.name,
		Price:         r.price,
		StockQuantity: r.stockQuantity,
	}
	switch domain.ItemKind(r.dtype) {
	case domain.KindBook:
		item.Details = domain.Book{Author: r.author.String, ISBN: r.isbn.String}
	case domain.KindAlbum:
		item.Details = domain.Album{Artist: r.artist.String, Etc: r.etc.String}
	case domain.KindMovie:
		item.Details = domain.Movie{Director: r.director.String, Actor: r.actor.String}
	default:
		return nil, fmt.Errorf("sqlite: item %d has unknown dtype %q", r.id, r.dtype)
	}
	return item, nil
}

// itemDetailArgs returns the author, isbn, artist, etc, director and actor
// column values for item; columns of other kinds are NULL.
func itemDetailArgs(item *domain.Item) []any {
	args := []any{nil, nil, nil, nil, nil, nil}
	switch d := item.Details.(type) {
	case domain.Book:
		args[0], args[1] = nullableString(d.Author), nullableString(d.ISBN)
	case domain.Album:
		args[2], args[3] = nullableString(d.Artist), nullableString(d.Etc)
	case domain.Movie:
		args[4], args[5] = nullableString(d.Director), nullableString(d.Actor)
	}
	return args
}

type deliveryRow struct {
	id                    int64
	city, street, zipcode string
	status                string
}

func (r *deliveryRow) dest() []any {
	return []any{&r.id, &r.city, &r.street, &r.zipcode, &r.status}
}

func (r *deliveryRow) toDomain() *domain.Delivery {
	return &domain.Delivery{
		ID:      r.id,
		Address: domain.Address{City: r.city, Street: r.street, Zipcode: r.zipcode},
		Status:  domain.DeliveryStatus(r.status),
	}
}

type orderRow struct {
	id         int64
	memberID   int64
	deliveryID int64
	orderDate  string
	status     string
}

func (r *orderRow) dest() []any {
	return []any{&r.id, &r.memberID, &r.deliveryID, &r.orderDate, &r.status}
}

// toDomain builds a bare order; OrderItems is an empty, non-nil slice.
func (r *orderRow) toDomain() (*domain.Order, error) {
	date, err := parseRFC3339(r.orderDate)
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:         r.id,
		MemberID:   r.memberID,
		DeliveryID: r.deliveryID,
		OrderItems: []*domain.OrderItem{},
		OrderDate:  date,
		Status:     domain.OrderStatus(r.status),
	}, nil
}

type orderItemRow struct {
	id         int64
	orderID    int64
	itemID     int64
	orderPrice int
	count      int
}

func (r *orderItemRow) dest() []any {
	return []any{&r.id, &r.orderID, &r.itemID, &r.orderPrice, &r.count}
}

func (r *orderItemRow) toDomain() *domain.OrderItem {
	return &domain.OrderItem{
		ID:         r.id,
		OrderID:    r.orderID,
		ItemID:     r.itemID,
		OrderPrice: r.orderPrice,
		Count:      r.count,
	}
}
