package app

import (
	"context"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

// OrderSearch filters the naive order listing. Zero values match everything.
type OrderSearch struct {
	MemberName string
	Status     domain.OrderStatus
}

type MemberRepository interface {
	Save(ctx context.Context, m *domain.Member) error
	Update(ctx context.Context, m *domain.Member) error
	FindOne(ctx context.Context, id int64) (*domain.Member, error)
	FindAll(ctx context.Context) ([]*domain.Member, error)
	FindByName(ctx context.Context, name string) ([]*domain.Member, error)
}

type ItemRepository interface {
	// Save inserts the item when its ID is zero and overwrites the row otherwise.
	Save(ctx context.Context, item *domain.Item) error
	FindOne(ctx context.Context, id int64) (*domain.Item, error)
	FindAll(ctx context.Context) ([]*domain.Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Item, error)
}

type OrderRepository interface {
	// Save inserts the order together with its delivery and lines.
	Save(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, order *domain.Order) error

	// FindOne loads the order with its delivery and lines. Line items are not
	// hydrated.
	FindOne(ctx context.Context, id int64) (*domain.Order, error)

	// FindAll loads bare order rows; nothing related is hydrated.
	FindAll(ctx context.Context, search OrderSearch) ([]*domain.Order, error)
	FindDelivery(ctx context.Context, id int64) (*domain.Delivery, error)
	FindOrderItems(ctx context.Context, orderID int64) ([]*domain.OrderItem, error)
	FindOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]*domain.OrderItem, error)

	// FindAllWithMemberDelivery joins the to-one relations only. A negative
	// limit means no limit.
	FindAllWithMemberDelivery(ctx context.Context, offset, limit int) ([]*domain.Order, error)

	// FindAllWithItem joins every relation, collection included, in one query.
	FindAllWithItem(ctx context.Context) ([]*domain.Order, error)
}

// OrderQueryRepository projects rows straight into read models without
// building entities.
type OrderQueryRepository interface {
	FindOrders(ctx context.Context) ([]OrderQueryDTO, error)
	FindOrderItems(ctx context.Context, orderID int64) ([]OrderItemQueryDTO, error)
	FindOrderItemsIn(ctx context.Context, orderIDs []int64) ([]OrderItemQueryDTO, error)
	FindAllByDTOFlat(ctx context.Context) ([]OrderFlatDTO, error)
	FindSimpleOrderDTOs(ctx context.Context) ([]SimpleOrderQueryDTO, error)
}

// Repositories is one consistent set of repositories, either bound to a
// transaction or to the plain connection.
type Repositories struct {
	Members      MemberRepository
	Items        ItemRepository
	Orders       OrderRepository
	OrderQueries OrderQueryRepository
}

// UnitOfWork hands out repositories. ExecTx commits when fn returns nil and
// rolls back otherwise; fn must only use the repositories it is given.
type UnitOfWork interface {
	Repositories() Repositories
	ExecTx(ctx context.Context, fn func(repos Repositories) error) error
}
