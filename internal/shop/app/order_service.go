package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

// OrderLine asks for Count units of one item.
type OrderLine struct {
	ItemID int64
	Count  int
}

type OrderService struct {
	uow UnitOfWork
	now func() time.Time
}

func NewOrderService(uow UnitOfWork) *OrderService {
	return &OrderService{uow: uow, now: time.Now}
}

// PlaceOrder orders count units of one item for a member and returns the new
// order id.
func (s *OrderService) PlaceOrder(ctx context.Context, memberID, itemID int64, count int) (int64, error) {
	return s.PlaceOrderLines(ctx, memberID, []OrderLine{{ItemID: itemID, Count: count}})
}

// PlaceOrderLines creates one order with a line per entry of lines. Member,
// items, stock changes, delivery and the order are all written in a single
// transaction.
func (s *OrderService) PlaceOrderLines(ctx context.Context, memberID int64, lines []OrderLine) (int64, error) {
	if len(lines) == 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, domain.ErrEmptyOrder)
	}

	var orderID int64
	err := s.uow.ExecTx(ctx, func(r Repositories) error {
		var err error
		orderID, err = placeOrder(ctx, r, memberID, lines, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "order placed", "order_id", orderID, "member_id", memberID, "lines", len(lines))
	return orderID, nil
}

// placeOrder builds and saves one order with r. Lines naming the same item
// share one *domain.Item so their stock removals accumulate.
func placeOrder(ctx context.Context, r Repositories, memberID int64, lines []OrderLine, orderDate time.Time) (int64, error) {
	member, err := r.Members.FindOne(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("member %d: %w", memberID, err)
	}

	delivery := domain.NewDelivery(member.Address)

	items := make(map[int64]*domain.Item, len(lines))
	touched := make([]*domain.Item, 0, len(lines))
	orderItems := make([]*domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		item, ok := items[line.ItemID]
		if !ok {
			item, err = r.Items.FindOne(ctx, line.ItemID)
			if err != nil {
				return 0, fmt.Errorf("item %d: %w", line.ItemID, err)
			}
			items[line.ItemID] = item
			touched = append(touched, item)
		}

		oi, err := domain.NewOrderItem(item, item.Price, line.Count)
		if err != nil {
			return 0, err
		}
		orderItems = append(orderItems, oi)
	}

	order, err := domain.NewOrder(member, delivery, orderDate, orderItems...)
	if err != nil {
		return 0, err
	}

	for _, item := range touched {
		if err := r.Items.Save(ctx, item); err != nil {
			return 0, err
		}
	}
	if err := r.Orders.Save(ctx, order); err != nil {
		return 0, err
	}
	return order.ID, nil
}

// CancelOrder cancels an order and returns its stock to the items.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) error {
	err := s.uow.ExecTx(ctx, func(r Repositories) error {
		order, err := r.Orders.FindOne(ctx, orderID)
		if err != nil {
			return err
		}
		if err := attachItems(ctx, r.Items, order.OrderItems); err != nil {
			return err
		}

		if err := order.Cancel(); err != nil {
			return err
		}

		saved := make(map[int64]bool, len(order.OrderItems))
		for _, oi := range order.OrderItems {
			if saved[oi.ItemID] {
				continue
			}
			if err := r.Items.Save(ctx, oi.Item); err != nil {
				return err
			}
			saved[oi.ItemID] = true
		}
		return r.Orders.UpdateStatus(ctx, order)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "order cancelled", "order_id", orderID)
	return nil
}

// FindOrder loads one fully hydrated order.
func (s *OrderService) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	r := s.uow.Repositories()
	order, err := r.Orders.FindOne(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Member, err = r.Members.FindOne(ctx, order.MemberID); err != nil {
		return nil, err
	}
	if err := attachItems(ctx, r.Items, order.OrderItems); err != nil {
		return nil, err
	}
	return order, nil
}

// attachItems hydrates OrderItem.Item with one query for all lines. Lines
// that share an item share the pointer so stock changes accumulate.
func attachItems(ctx context.Context, items ItemRepository, lines []*domain.OrderItem) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, oi := range lines {
		if !seen[oi.ItemID] {
			seen[oi.ItemID] = true
			ids = append(ids, oi.ItemID)
		}
	}

	found, err := items.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]*domain.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	for _, oi := range lines {
		it, ok := byID[oi.ItemID]
		if !ok {
			return fmt.Errorf("item %d: %w", oi.ItemID, ErrNotFound)
		}
		oi.Item = it
	}
	return nil
}
