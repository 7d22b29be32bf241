package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type ItemService struct {
	uow UnitOfWork
}

func NewItemService(uow UnitOfWork) *ItemService {
	return &ItemService{uow: uow}
}

// UpdateItemParams are the fields an item update may change. The kind and its
// details are fixed at creation.
type UpdateItemParams struct {
	Name          string
	Price         int
	StockQuantity int
}

func (s *ItemService) SaveItem(ctx context.Context, item *domain.Item) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.uow.ExecTx(ctx, func(r Repositories) error {
		return r.Items.Save(ctx, item)
	}); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "item saved", "item_id", item.ID, "kind", string(item.Kind()))
	return item.ID, nil
}

// UpdateItem loads the item, changes it in memory and writes it back in one
// transaction.
func (s *ItemService) UpdateItem(ctx context.Context, id int64, p UpdateItemParams) error {
	return s.uow.ExecTx(ctx, func(r Repositories) error {
		item, err := r.Items.FindOne(ctx, id)
		if err != nil {
			return err
		}
		item.Name = p.Name
		item.Price = p.Price
		item.StockQuantity = p.StockQuantity
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return r.Items.Save(ctx, item)
	})
}

func (s *ItemService) FindItems(ctx context.Context) ([]*domain.Item, error) {
	return s.uow.Repositories().Items.FindAll(ctx)
}

func (s *ItemService) FindOne(ctx context.Context, id int64) (*domain.Item, error) {
	return s.uow.Repositories().Items.FindOne(ctx, id)
}
