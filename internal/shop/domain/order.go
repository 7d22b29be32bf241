package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusOrder  OrderStatus = "ORDER"
	StatusCancel OrderStatus = "CANCEL"
)

// ParseOrderStatus returns "" for an empty string, meaning "any status".
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case "":
		return "", nil
	case StatusOrder, StatusCancel:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type DeliveryStatus string

const (
	DeliveryReady DeliveryStatus = "READY"
	DeliveryComp  DeliveryStatus = "COMP"
)

// Delivery is owned by exactly one order.
type Delivery struct {
	ID      int64          `json:"id"`
	Address Address        `json:"address"`
	Status  DeliveryStatus `json:"status"`
}

func NewDelivery(addr Address) *Delivery {
	return &Delivery{Address: addr, Status: DeliveryReady}
}

// OrderItem is one order line. OrderPrice is the item price captured when the
// order was placed.
type OrderItem struct {
	ID         int64 `json:"id"`
	OrderID    int64 `json:"order_id"`
	ItemID     int64 `json:"item_id"`
	Item       *Item `json:"item,omitempty"`
	OrderPrice int   `json:"order_price"`
	Count      int   `json:"count"`
}

// NewOrderItem takes count units out of item's stock.
func NewOrderItem(item *Item, orderPrice, count int) (*OrderItem, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCount, count)
	}
	if err := item.RemoveStock(count); err != nil {
		return nil, err
	}
	return &OrderItem{
		ItemID:     item.ID,
		Item:       item,
		OrderPrice: orderPrice,
		Count:      count,
	}, nil
}

func (oi *OrderItem) TotalPrice() int {
	return oi.OrderPrice * oi.Count
}

// Order is the aggregate root. Member, Delivery and OrderItem.Item are
// optional hydrations of the matching id fields; what is loaded depends on the
// query that produced the order.
type Order struct {
	ID         int64        `json:"id"`
	MemberID   int64        `json:"member_id"`
	Member     *Member      `json:"member,omitempty"`
	DeliveryID int64        `json:"delivery_id"`
	Delivery   *Delivery    `json:"delivery,omitempty"`
	OrderItems []*OrderItem `json:"order_items"`
	OrderDate  time.Time    `json:"order_date"`
	Status     OrderStatus  `json:"status"`
}

// NewOrder assembles a fresh order in status ORDER. Stock has already been
// taken by NewOrderItem.
func NewOrder(member *Member, delivery *Delivery, orderDate time.Time, items ...*OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	return &Order{
		MemberID:   member.ID,
		Member:     member,
		Delivery:   delivery,
		OrderItems: items,
		OrderDate:  orderDate,
		Status:     StatusOrder,
	}, nil
}

// Cancel flips the order to CANCEL and puts every line back into its item's
// stock. The delivery and every line's item must be loaded; nothing is
// mutated when an error is returned.
func (o *Order) Cancel() error {
	if o.Status == StatusCancel {
		return fmt.Errorf("order %d: %w", o.ID, ErrAlreadyCancelled)
	}
	if o.Delivery == nil {
		return fmt.Errorf("order %d delivery: %w", o.ID, ErrNotHydrated)
	}
	if o.Delivery.Status == DeliveryComp {
		return fmt.Errorf("order %d: %w", o.ID, ErrAlreadyDelivered)
	}
	for _, oi := range o.OrderItems {
		if oi.Item == nil {
			return fmt.Errorf("order item %d item: %w", oi.ID, ErrNotHydrated)
		}
	}

	o.Status = StatusCancel
	for _, oi := range o.OrderItems {
		oi.Item.AddStock(oi.Count)
	}
	return nil
}

// TotalPrice is the sum of every line's order price times its count.
func (o *Order) TotalPrice() int {
	total := 0
	for _, oi := range o.OrderItems {
		total += oi.TotalPrice()
	}
	return total
}
