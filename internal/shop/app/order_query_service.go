package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

// DefaultBatchFetchSize is used when the configured batch size is not positive.
const DefaultBatchFetchSize = 100

// OrderQueryService lists orders using several query shapes that return the
// same logical content:
//
//   - FindOrdersNaive: one query for orders, then one per member, delivery,
//     line collection and line item. The N+1 baseline.
//   - FindOrdersWithItem: a single join over every relation. No N+1, but the
//     row count is the number of order lines, so it cannot be paginated.
//   - FindOrdersPaged: joins the to-one relations (safe to paginate) and
//     loads lines and items in IN-clause batches of batchSize ids.
//   - FindOrderQueryDTOs: direct DTO projection, one line query per order.
//   - FindOrderQueryDTOsOptimized: direct DTO projection, two queries total.
//   - FindOrderQueryDTOsFlat: one flat join regrouped in memory.
//
// Prefer entities with a fetch join first. When a collection has to be
// paginated, batch-load it instead of joining it. Fall back to direct DTO
// projection only when entity queries cannot produce the shape.
type OrderQueryService struct {
	uow       UnitOfWork
	batchSize int
}

func NewOrderQueryService(uow UnitOfWork, batchSize int) *OrderQueryService {
	if batchSize <= 0 {
		batchSize = DefaultBatchFetchSize
	}
	return &OrderQueryService{uow: uow, batchSize: batchSize}
}

// FindOrdersNaive loads every related entity one row at a time.
func (s *OrderQueryService) FindOrdersNaive(ctx context.Context, search OrderSearch) ([]*domain.Order, error) {
	r := s.uow.Repositories()
	orders, err := r.Orders.FindAll(ctx, search)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Member, err = r.Members.FindOne(ctx, o.MemberID); err != nil {
			return nil, fmt.Errorf("order %d member: %w", o.ID, err)
		}
		if o.Delivery, err = r.Orders.FindDelivery(ctx, o.DeliveryID); err != nil {
			return nil, fmt.Errorf("order %d delivery: %w", o.ID, err)
		}
		if o.OrderItems, err = r.Orders.FindOrderItems(ctx, o.ID); err != nil {
			return nil, fmt.Errorf("order %d items: %w", o.ID, err)
		}
		for _, oi := range o.OrderItems {
			if oi.Item, err = r.Items.FindOne(ctx, oi.ItemID); err != nil {
				return nil, fmt.Errorf("order item %d item: %w", oi.ID, err)
			}
		}
	}
	return orders, nil
}

// FindSimpleOrdersNaive is FindOrdersNaive restricted to the to-one relations.
func (s *OrderQueryService) FindSimpleOrdersNaive(ctx context.Context, search OrderSearch) ([]*domain.Order, error) {
	r := s.uow.Repositories()
	orders, err := r.Orders.FindAll(ctx, search)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Member, err = r.Members.FindOne(ctx, o.MemberID); err != nil {
			return nil, fmt.Errorf("order %d member: %w", o.ID, err)
		}
		if o.Delivery, err = r.Orders.FindDelivery(ctx, o.DeliveryID); err != nil {
			return nil, fmt.Errorf("order %d delivery: %w", o.ID, err)
		}
	}
	return orders, nil
}

// FindSimpleOrdersFetchJoin loads orders with member and delivery in one query.
func (s *OrderQueryService) FindSimpleOrdersFetchJoin(ctx context.Context) ([]*domain.Order, error) {
	return s.uow.Repositories().Orders.FindAllWithMemberDelivery(ctx, 0, -1)
}

func (s *OrderQueryService) FindSimpleOrderDTOs(ctx context.Context) ([]SimpleOrderQueryDTO, error) {
	return s.uow.Repositories().OrderQueries.FindSimpleOrderDTOs(ctx)
}

func (s *OrderQueryService) FindOrdersWithItem(ctx context.Context) ([]*domain.Order, error) {
	return s.uow.Repositories().Orders.FindAllWithItem(ctx)
}

// FindOrdersPaged pages over orders and batch-loads their lines and items.
func (s *OrderQueryService) FindOrdersPaged(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", ErrInvalidInput)
	}

	r := s.uow.Repositories()
	orders, err := r.Orders.FindAllWithMemberDelivery(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	orderIDs := make([]int64, len(orders))
	byOrder := make(map[int64]*domain.Order, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		byOrder[o.ID] = o
		o.OrderItems = []*domain.OrderItem{}
	}

	var lines []*domain.OrderItem
	for batch := range slices.Chunk(orderIDs, s.batchSize) {
		found, err := r.Orders.FindOrderItemsByOrderIDs(ctx, batch)
		if err != nil {
			return nil, err
		}
		lines = append(lines, found...)
	}

	var itemIDs []int64
	seen := make(map[int64]bool)
	for _, oi := range lines {
		o := byOrder[oi.OrderID]
		o.OrderItems = append(o.OrderItems, oi)
		if !seen[oi.ItemID] {
			seen[oi.ItemID] = true
			itemIDs = append(itemIDs, oi.ItemID)
		}
	}

	items := make(map[int64]*domain.Item, len(itemIDs))
	for batch := range slices.Chunk(itemIDs, s.batchSize) {
		found, err := r.Items.FindByIDs(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, it := range found {
			items[it.ID] = it
		}
	}
	for _, oi := range lines {
		it, ok := items[oi.ItemID]
		if !ok {
			return nil, fmt.Errorf("order item %d item %d: %w", oi.ID, oi.ItemID, ErrNotFound)
		}
		oi.Item = it
	}
	return orders, nil
}

// FindOrderQueryDTOs projects order headers, then runs one line projection
// per order.
func (s *OrderQueryService) FindOrderQueryDTOs(ctx context.Context) ([]OrderQueryDTO, error) {
	q := s.uow.Repositories().OrderQueries
	orders, err := q.FindOrders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := q.FindOrderItems(ctx, orders[i].OrderID)
		if err != nil {
			return nil, err
		}
		orders[i].OrderItems = items
	}
	return orders, nil
}

// FindOrderQueryDTOsOptimized projects order headers, then fetches every line
// with a single IN query and attaches them in memory.
func (s *OrderQueryService) FindOrderQueryDTOsOptimized(ctx context.Context) ([]OrderQueryDTO, error) {
	q := s.uow.Repositories().OrderQueries
	orders, err := q.FindOrders(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	items, err := q.FindOrderItemsIn(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]OrderItemQueryDTO, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].OrderItems = byOrder[orders[i].OrderID]
		if orders[i].OrderItems == nil {
			orders[i].OrderItems = []OrderItemQueryDTO{}
		}
	}
	return orders, nil
}

// FindOrderQueryDTOsFlat runs one flat join and regroups the rows.
func (s *OrderQueryService) FindOrderQueryDTOsFlat(ctx context.Context) ([]OrderQueryDTO, error) {
	rows, err := s.uow.Repositories().OrderQueries.FindAllByDTOFlat(ctx)
	if err != nil {
		return nil, err
	}
	return GroupFlatRows(rows), nil
}
