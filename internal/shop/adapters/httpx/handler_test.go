package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/jpashop-orders/internal/pkg/cache"
	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/httpx/middlewares"
	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/sqlite"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
)

type testServer struct {
	router http.Handler
	store  *sqlite.Store
}

func newTestServer(t *testing.T, seed bool) *testServer {
	t.Helper()
	return newTestServerWithCache(t, seed, cache.NewMemoryCache("shop-api"))
}

func newTestServerWithCache(t *testing.T, seed bool, c cache.Cache) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := Services{
		Members: app.NewMemberService(store),
		Items:   app.NewItemService(store),
		Orders:  app.NewOrderService(store),
		Queries: app.NewOrderQueryService(store, app.DefaultBatchFetchSize),
	}
	if seed {
		require.NoError(t, app.Seed(ctx, store))
	}

	h := NewHandler(s, c, time.Hour, store)
	return &testServer{router: NewRouter(h), store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestOrderEndpoints_RenderTheSameContent(t *testing.T) {
	ts := newTestServer(t, true)

	base := ts.do(t, http.MethodGet, "/api/v2/orders", nil)
	require.Equal(t, http.StatusOK, base.Code)
	want := decode[[]map[string]any](t, base)
	require.Len(t, want, 2)
	assert.Equal(t, "userA", want[0]["name"])
	assert.Len(t, want[0]["order_items"], 2)

	for _, path := range []string{
		"/api/v3/orders",
		"/api/v3.1/orders",
		"/api/v3.1/orders?offset=0&limit=100",
		"/api/v4/orders",
		"/api/v5/orders",
		"/api/v6/orders",
	} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, want, decode[[]map[string]any](t, rec))
		})
	}
}

func TestOrderEndpoints_QueryCounts(t *testing.T) {
	ts := newTestServer(t, true)

	tests := map[string]int64{
		"/api/v2/orders":   11,
		"/api/v3/orders":   1,
		"/api/v3.1/orders": 3,
		"/api/v4/orders":   3,
		"/api/v5/orders":   2,
		"/api/v6/orders":   1,
	}
	for path, want := range tests {
		ts.store.ResetQueryCount()
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, ts.store.QueryCount(), path)
	}
}

func TestOrdersV1_ExposesEntities(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodGet, "/api/v1/orders?memberName=userB", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	orders := decode[[]map[string]any](t, rec)
	require.Len(t, orders, 1)
	member := orders[0]["member"].(map[string]any)
	assert.Equal(t, "userB", member["name"])
	assert.Equal(t, "ORDER", orders[0]["status"])

	rec = ts.do(t, http.MethodGet, "/api/v1/orders?orderStatus=SHIPPED", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersV31_Pagination(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodGet, "/api/v3.1/orders?offset=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]OrderDTO](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, "userB", page[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/v3.1/orders?offset=abc&limit=", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]OrderDTO](t, rec), 2, "malformed values fall back to defaults")

	rec = ts.do(t, http.MethodGet, "/api/v3.1/orders?offset=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Error)
}

func TestSimpleOrderEndpoints(t *testing.T) {
	ts := newTestServer(t, true)

	var want []SimpleOrderDTO
	for _, path := range []string{"/api/v2/simple-orders", "/api/v3/simple-orders", "/api/v4/simple-orders"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		got := decode[[]SimpleOrderDTO](t, rec)
		require.Len(t, got, 2, path)
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, path)
	}
	assert.Equal(t, "진주", want[1].Address.City)
}

func TestOrderEndpoints_Empty(t *testing.T) {
	ts := newTestServer(t, false)

	for _, path := range []string{"/api/v2/orders", "/api/v3/orders", "/api/v3.1/orders", "/api/v4/orders", "/api/v5/orders", "/api/v6/orders"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

func TestPlaceAndCancelOrder(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/v2/members", CreateMemberRequest{Name: "kim"})
	require.Equal(t, http.StatusCreated, rec.Code)
	memberID := decode[CreatedResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/items", ItemRequest{Kind: "book", Name: "jpa", Price: 10000, StockQuantity: 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	itemID := decode[CreatedResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: memberID, ItemID: itemID, Count: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decode[PlaceOrderResponse](t, rec).OrderID

	rec = ts.do(t, http.MethodGet, "/api/orders/"+itoa(orderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[OrderDTO](t, rec)
	assert.Equal(t, "kim", order.Name)
	assert.Equal(t, []OrderItemDTO{{ItemName: "jpa", OrderPrice: 10000, Count: 2}}, order.OrderItems)

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: memberID, ItemID: itemID, Count: 9})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_enough_stock", decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/orders/"+itoa(orderID)+"/cancel", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/orders/"+itoa(orderID)+"/cancel", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_cancelled", decode[ErrorResponse](t, rec).Error)

	items := decode[[]ItemDTO](t, ts.do(t, http.MethodGet, "/api/items", nil))
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].StockQuantity)
}

func TestPlaceOrder_Idempotent(t *testing.T) {
	ts := newTestServer(t, true)
	req := PlaceOrderRequest{MemberID: 1, ItemID: 1, Count: 1}

	first := ts.do(t, http.MethodPost, "/api/orders", req, middlewares.HeaderXIdempotencyKey, "order-abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := ts.do(t, http.MethodPost, "/api/orders", req, middlewares.HeaderXIdempotencyKey, "order-abc")
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, decode[PlaceOrderResponse](t, first), decode[PlaceOrderResponse](t, second))

	items := decode[[]ItemDTO](t, ts.do(t, http.MethodGet, "/api/items", nil))
	assert.Equal(t, 98, items[0].StockQuantity, "seeded 99, one more unit taken once")

	third := ts.do(t, http.MethodPost, "/api/orders", req, middlewares.HeaderXIdempotencyKey, "order-def")
	require.Equal(t, http.StatusCreated, third.Code)
	assert.NotEqual(t, decode[PlaceOrderResponse](t, first), decode[PlaceOrderResponse](t, third))
}

// rendezvousCache holds the first two SetNX calls until both have arrived.
type rendezvousCache struct {
	cache.Cache
	arrived sync.WaitGroup
	calls   atomic.Int32
}

func newRendezvousCache() *rendezvousCache {
	c := &rendezvousCache{Cache: cache.NewMemoryCache("shop-api")}
	c.arrived.Add(2)
	return c
}

func (c *rendezvousCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if c.calls.Add(1) <= 2 {
		c.arrived.Done()
		c.arrived.Wait()
	}
	return c.Cache.SetNX(ctx, key, value, ttl)
}

func TestPlaceOrder_IdempotentUnderConcurrency(t *testing.T) {
	ts := newTestServerWithCache(t, true, newRendezvousCache())
	req := PlaceOrderRequest{MemberID: 1, ItemID: 1, Count: 1}

	var wg sync.WaitGroup
	recs := make([]*httptest.ResponseRecorder, 2)
	for i := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs[i] = ts.do(t, http.MethodPost, "/api/orders", req, middlewares.HeaderXIdempotencyKey, "same")
		}()
	}
	wg.Wait()

	for _, rec := range recs {
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Equal(t, decode[PlaceOrderResponse](t, recs[0]), decode[PlaceOrderResponse](t, recs[1]))

	items := decode[[]ItemDTO](t, ts.do(t, http.MethodGet, "/api/items", nil))
	assert.Equal(t, 98, items[0].StockQuantity, "seeded 99, one unit taken once")
}

func TestPlaceOrder_FailedPlacementReleasesKey(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: 1, ItemID: 1, Count: 1000},
		middlewares.HeaderXIdempotencyKey, "retry-me")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: 1, ItemID: 1, Count: 1},
		middlewares.HeaderXIdempotencyKey, "retry-me")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotZero(t, decode[PlaceOrderResponse](t, rec).OrderID)
}

func TestPlaceOrder_BadRequests(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodPost, "/api/orders", map[string]any{"member_id": 1, "item_id": 1, "count": 1, "extra": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{ItemID: 1, Count: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: 1, ItemID: 1, Count: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/orders", PlaceOrderRequest{MemberID: 999, ItemID: 1, Count: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/v2/members", CreateMemberRequest{Name: "kim"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[CreatedResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/v2/members", CreateMemberRequest{Name: "kim"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_name", decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/v2/members", CreateMemberRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v2/members/"+itoa(id), UpdateMemberRequest{Name: "lee"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, UpdateMemberResponse{ID: id, Name: "lee"}, decode[UpdateMemberResponse](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/v2/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[Result[MemberDTO]](t, rec)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "lee", list.Data[0].Name)
}

func TestItemEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/items", ItemRequest{Kind: "album", Name: "abbey road", Price: 15000, StockQuantity: 3, Artist: "beatles"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[CreatedResponse](t, rec).ID

	rec = ts.do(t, http.MethodPost, "/api/items", ItemRequest{Kind: "vinyl", Name: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/items", ItemRequest{Kind: "book", Name: "x", Price: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/items/"+itoa(id), UpdateItemRequest{Name: "let it be", Price: 16000, StockQuantity: 4})
	require.Equal(t, http.StatusNoContent, rec.Code)

	items := decode[[]ItemDTO](t, ts.do(t, http.MethodGet, "/api/items", nil))
	require.Len(t, items, 1)
	assert.Equal(t, ItemDTO{ID: id, Kind: "A", Name: "let it be", Price: 16000, StockQuantity: 4, Artist: "beatles"}, items[0])

	rec = ts.do(t, http.MethodPut, "/api/items/999", UpdateItemRequest{Name: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middlewares.HeaderXRequestId))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
