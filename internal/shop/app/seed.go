package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type seedOrder struct {
	member domain.Member
	books  []*domain.Item
	counts []int
}

func sampleOrders() []seedOrder {
	return []seedOrder{
		{
			member: domain.Member{Name: "userA", Address: domain.Address{City: "서울", Street: "1", Zipcode: "1111"}},
			books: []*domain.Item{
				domain.NewBook("JPA1 BOOK", 10000, 100, "", ""),
				domain.NewBook("JPA2 BOOK", 20000, 100, "", ""),
			},
			counts: []int{1, 2},
		},
		{
			member: domain.Member{Name: "userB", Address: domain.Address{City: "진주", Street: "2", Zipcode: "2222"}},
			books: []*domain.Item{
				domain.NewBook("SPRING1 BOOK", 20000, 200, "", ""),
				domain.NewBook("SPRING2 BOOK", 40000, 300, "", ""),
			},
			counts: []int{3, 4},
		},
	}
}

// Seed loads the sample members, books and orders in one transaction. It
// does nothing when the first sample member already exists; a failed run
// leaves no sample rows behind.
func Seed(ctx context.Context, uow UnitOfWork) error {
	samples := sampleOrders()
	var seeded bool
	err := uow.ExecTx(ctx, func(r Repositories) error {
		existing, err := r.Members.FindByName(ctx, samples[0].member.Name)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		orderDate := time.Now().UTC()
		for _, so := range samples {
			m := so.member
			if err := joinMember(ctx, r.Members, &m); err != nil {
				return fmt.Errorf("seed member %s: %w", m.Name, err)
			}

			lines := make([]OrderLine, len(so.books))
			for j, book := range so.books {
				if err := r.Items.Save(ctx, book); err != nil {
					return fmt.Errorf("seed item %s: %w", book.Name, err)
				}
				lines[j] = OrderLine{ItemID: book.ID, Count: so.counts[j]}
			}

			if _, err := placeOrder(ctx, r, m.ID, lines, orderDate); err != nil {
				return fmt.Errorf("seed order for %s: %w", m.Name, err)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return err
	}

	if seeded {
		slog.InfoContext(ctx, "sample data loaded")
	} else {
		slog.InfoContext(ctx, "sample data already present")
	}
	return nil
}
