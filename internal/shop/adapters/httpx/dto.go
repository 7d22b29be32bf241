package httpx

import (
	"fmt"
	"time"

	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type PlaceOrderRequest struct {
	MemberID int64 `json:"member_id"`
	ItemID   int64 `json:"item_id"`
	Count    int   `json:"count"`
}

type PlaceOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

// OrderDTO is the response shape of the entity-based order endpoints. Field
// names match app.OrderQueryDTO so every strategy renders the same JSON.
type OrderDTO struct {
	OrderID     int64              `json:"order_id"`
	Name        string             `json:"name"`
	OrderDate   time.Time          `json:"order_date"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	Address     domain.Address     `json:"address"`
	OrderItems  []OrderItemDTO     `json:"order_items"`
}

type OrderItemDTO struct {
	ItemName   string `json:"item_name"`
	OrderPrice int    `json:"order_price"`
	Count      int    `json:"count"`
}

type SimpleOrderDTO struct {
	OrderID     int64              `json:"order_id"`
	Name        string             `json:"name"`
	OrderDate   time.Time          `json:"order_date"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	Address     domain.Address     `json:"address"`
}

// Result wraps list responses that may grow extra fields later.
type Result[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

type CreateMemberRequest struct {
	Name    string         `json:"name"`
	Address domain.Address `json:"address"`
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

type UpdateMemberRequest struct {
	Name string `json:"name"`
}

type UpdateMemberResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MemberDTO struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Address domain.Address `json:"address"`
}

// ItemRequest creates an item. Kind is "book", "album" or "movie" (or the
// single-letter discriminator); only the fields of that kind are read.
type ItemRequest struct {
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Price         int    `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Author        string `json:"author,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Artist        string `json:"artist,omitempty"`
	Etc           string `json:"etc,omitempty"`
	Director      string `json:"director,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

type UpdateItemRequest struct {
	Name          string `json:"name"`
	Price         int    `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

type ItemDTO struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Price         int    `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Author        string `json:"author,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Artist        string `json:"artist,omitempty"`
	Etc           string `json:"etc,omitempty"`
	Director      string `json:"director,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// mapOrderToDTO needs member, delivery and every line item hydrated.
func mapOrderToDTO(o *domain.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.OrderItems))
	for i, oi := range o.OrderItems {
		items[i] = OrderItemDTO{
			ItemName:   oi.Item.Name,
			OrderPrice: oi.OrderPrice,
			Count:      oi.Count,
		}
	}
	return OrderDTO{
		OrderID:     o.ID,
		Name:        o.Member.Name,
		OrderDate:   o.OrderDate,
		OrderStatus: o.Status,
		Address:     o.Delivery.Address,
		OrderItems:  items,
	}
}

func mapOrdersToDTO(orders []*domain.Order) []OrderDTO {
	out := make([]OrderDTO, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToDTO(o)
	}
	return out
}

func mapSimpleOrders(orders []*domain.Order) []SimpleOrderDTO {
	out := make([]SimpleOrderDTO, len(orders))
	for i, o := range orders {
		out[i] = SimpleOrderDTO{
			OrderID:     o.ID,
			Name:        o.Member.Name,
			OrderDate:   o.OrderDate,
			OrderStatus: o.Status,
			Address:     o.Delivery.Address,
		}
	}
	return out
}

func mapSimpleQueryDTOs(rows []app.SimpleOrderQueryDTO) []SimpleOrderDTO {
	out := make([]SimpleOrderDTO, len(rows))
	for i, r := range rows {
		out[i] = SimpleOrderDTO(r)
	}
	return out
}

func mapMembers(members []*domain.Member) []MemberDTO {
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		out[i] = MemberDTO{ID: m.ID, Name: m.Name, Address: m.Address}
	}
	return out
}

func (req ItemRequest) toDomain() (*domain.Item, error) {
	kind, err := domain.ParseItemKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app.ErrInvalidInput, err)
	}
	item := &domain.Item{Name: req.Name, Price: req.Price, StockQuantity: req.StockQuantity}
	switch kind {
	case domain.KindBook:
		item.Details = domain.Book{Author: req.Author, ISBN: req.ISBN}
	case domain.KindAlbum:
		item.Details = domain.Album{Artist: req.Artist, Etc: req.Etc}
	case domain.KindMovie:
		item.Details = domain.Movie{Director: req.Director, Actor: req.Actor}
	}
	return item, nil
}

func mapItemToDTO(item *domain.Item) ItemDTO {
	dto := ItemDTO{
		ID:            item.ID,
		Kind:          string(item.Kind()),
		Name:          item.Name,
		Price:         item.Price,
		StockQuantity: item.StockQuantity,
	}
	switch d := item.Details.(type) {
	case domain.Book:
		dto.Author, dto.ISBN = d.Author, d.ISBN
	case domain.Album:
		dto.Artist, dto.Etc = d.Artist, d.Etc
	case domain.Movie:
		dto.Director, dto.Actor = d.Director, d.Actor
	}
	return dto
}
