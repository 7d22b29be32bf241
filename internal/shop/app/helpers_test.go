package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

type fixture struct {
	store   *sqlite.Store
	members *app.MemberService
	items   *app.ItemService
	orders  *app.OrderService
	queries *app.OrderQueryService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithBatch(t, app.DefaultBatchFetchSize)
}

func newFixtureWithBatch(t *testing.T, batchSize int) *fixture {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		store:   store,
		members: app.NewMemberService(store),
		items:   app.NewItemService(store),
		orders:  app.NewOrderService(store),
		queries: app.NewOrderQueryService(store, batchSize),
	}
}

func (f *fixture) join(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.members.Join(context.Background(), &domain.Member{
		Name:    name,
		Address: domain.Address{City: "seoul", Street: "river", Zipcode: "123-123"},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) book(t *testing.T, name string, price, stock int) int64 {
	t.Helper()
	id, err := f.items.SaveItem(context.Background(), domain.NewBook(name, price, stock, "kim", "1234"))
	require.NoError(t, err)
	return id
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, app.Seed(context.Background(), f.store))
}
