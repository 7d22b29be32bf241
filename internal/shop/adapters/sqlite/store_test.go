package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite/migrations"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// placeTestOrder persists a member, the given items and one order holding a
// line per item, bypassing the services.
func placeTestOrder(t *testing.T, store *Store, name string, counts map[*domain.Item]int, items ...*domain.Item) *domain.Order {
	t.Helper()
	ctx := context.Background()
	r := store.Repositories()

	member := &domain.Member{Name: name, Address: domain.Address{City: "city-" + name, Street: "street", Zipcode: "0000"}}
	require.NoError(t, r.Members.Save(ctx, member))

	var lines []*domain.OrderItem
	for _, item := range items {
		if item.ID == 0 {
			require.NoError(t, r.Items.Save(ctx, item))
		}
		oi, err := domain.NewOrderItem(item, item.Price, counts[item])
		require.NoError(t, err)
		lines = append(lines, oi)
	}
	order, err := domain.NewOrder(member, domain.NewDelivery(member.Address), time.Now(), lines...)
	require.NoError(t, err)
	require.NoError(t, r.Orders.Save(ctx, order))
	return order
}

func TestOpen_MigrationsAreAppliedOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, applyMigrations(ctx, store.db, migrations.FS))

	var applied int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUp(content))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func TestExecTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.ExecTx(ctx, func(r app.Repositories) error {
		return r.Members.Save(ctx, &domain.Member{Name: "kim"})
	})
	require.NoError(t, err)

	found, err := store.Repositories().Members.FindByName(ctx, "kim")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestExecTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.ExecTx(ctx, func(r app.Repositories) error {
		require.NoError(t, r.Members.Save(ctx, &domain.Member{Name: "kim"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	found, err := store.Repositories().Members.FindByName(ctx, "kim")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExecTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	assert.Panics(t, func() {
		_ = store.ExecTx(ctx, func(r app.Repositories) error {
			require.NoError(t, r.Members.Save(ctx, &domain.Member{Name: "kim"}))
			panic("boom")
		})
	})

	found, err := store.Repositories().Members.FindByName(ctx, "kim")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestQueryCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	r := store.Repositories()

	store.ResetQueryCount()
	_, err := r.Members.FindAll(ctx)
	require.NoError(t, err)
	_, err = r.Items.FindOne(ctx, 42)
	require.ErrorIs(t, err, app.ErrNotFound)
	assert.EqualValues(t, 2, store.QueryCount())

	_, err = r.Items.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, store.QueryCount(), "empty IN lists issue no statement")

	store.ResetQueryCount()
	assert.Zero(t, store.QueryCount())
}

func TestQueryContext_SpanEndsOnClose(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	recorder := tracetest.NewSpanRecorder()
	store.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	q := &tracedQuerier{q: store.db, store: store}
	rows, err := q.QueryContext(ctx, "SELECT 1 UNION ALL SELECT 2")
	require.NoError(t, err)
	require.Len(t, recorder.Started(), 1)

	var got []int
	for rows.Next() {
		var n int
		require.NoError(t, rows.Scan(&n))
		got = append(got, n)
		assert.Empty(t, recorder.Ended(), "span is open while rows are read")
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1, 2}, got)

	require.NoError(t, rows.Close())
	require.NoError(t, rows.Close())
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sqlite.query", ended[0].Name())
}

func TestCompactSQL(t *testing.T) {
	assert.Equal(t, "SELECT a FROM b WHERE c = ?", compactSQL("\n\t\tSELECT a\n\t\tFROM   b\n\t\tWHERE  c = ?"))
}

func TestIDArray(t *testing.T) {
	assert.Equal(t, "[4,5,6]", idArray([]int64{4, 5, 6}))
	assert.Equal(t, "[-1]", idArray([]int64{-1}))
}
