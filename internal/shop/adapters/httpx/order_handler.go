package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/httpx/middlewares"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

const (
	// pendingOrder marks a reserved idempotency key whose order is not placed yet.
	pendingOrder    = "pending"
	reservationTTL  = 30 * time.Second
	reservationWait = 10 * time.Second
	reservationPoll = 20 * time.Millisecond
)

var errKeyInUse = errors.New("idempotency key in use")

// PlaceOrder creates an order for one item. With an X-Idempotency-Key header,
// the first request reserves the key and every repeat, concurrent or later,
// returns the order that request created.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.MemberID <= 0 || req.ItemID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "member_id and item_id are required")
		return
	}

	var cacheKey string
	if idempKey := middlewares.IdempotencyKey(ctx); idempKey != "" {
		cacheKey = h.cache.GenerateKey(placeOrderOperation, idempKey)
		placed, err := h.reserveIdempotencyKey(ctx, cacheKey)
		switch {
		case errors.Is(err, errKeyInUse):
			writeError(w, http.StatusConflict, "request_in_progress", "a request with this idempotency key is still running")
			return
		case err != nil:
			slog.ErrorContext(ctx, "idempotency reservation failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "cache_unavailable", "idempotency store unavailable")
			return
		case placed != 0:
			slog.InfoContext(ctx, "replaying placed order", "order_id", placed)
			writeJSON(w, http.StatusCreated, PlaceOrderResponse{OrderID: placed})
			return
		}
	}

	orderID, err := h.orders.PlaceOrder(ctx, req.MemberID, req.ItemID, req.Count)
	if err != nil {
		if cacheKey != "" {
			if err := h.cache.Delete(context.WithoutCancel(ctx), cacheKey); err != nil {
				slog.WarnContext(ctx, "failed to release idempotency key", "error", err)
			}
		}
		writeServiceError(w, r, err)
		return
	}

	if cacheKey != "" {
		if err := h.cache.Set(context.WithoutCancel(ctx), cacheKey, orderID, h.idempotencyTTL); err != nil {
			slog.WarnContext(ctx, "failed to store idempotency key", "order_id", orderID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, PlaceOrderResponse{OrderID: orderID})
}

// reserveIdempotencyKey returns 0 once this request owns key. When another
// request owns it, it waits for that request's order id and returns it. The
// owner's reservation disappears if its placement fails, and the key is then
// taken over here.
func (h *Handler) reserveIdempotencyKey(ctx context.Context, key string) (int64, error) {
	deadline := time.Now().Add(reservationWait)
	for {
		reserved, err := h.cache.SetNX(ctx, key, pendingOrder, reservationTTL)
		if err != nil {
			return 0, err
		}
		if reserved {
			return 0, nil
		}

		val, err := h.cache.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		if val != "" && val != pendingOrder {
			orderID, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed idempotency entry %q: %w", val, err)
			}
			return orderID, nil
		}

		if time.Now().After(deadline) {
			return 0, errKeyInUse
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(reservationPoll):
		}
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	order, err := h.orders.FindOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToDTO(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.orders.CancelOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderSearch(r *http.Request) (app.OrderSearch, error) {
	status, err := domain.ParseOrderStatus(r.URL.Query().Get("orderStatus"))
	if err != nil {
		return app.OrderSearch{}, err
	}
	return app.OrderSearch{
		MemberName: r.URL.Query().Get("memberName"),
		Status:     status,
	}, nil
}

// OrdersV1 exposes the entities themselves.
func (h *Handler) OrdersV1(w http.ResponseWriter, r *http.Request) {
	search, err := orderSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	orders, err := h.queries.FindOrdersNaive(r.Context(), search)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) OrdersV2(w http.ResponseWriter, r *http.Request) {
	search, err := orderSearch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	orders, err := h.queries.FindOrdersNaive(r.Context(), search)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrdersToDTO(orders))
}

func (h *Handler) OrdersV3(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindOrdersWithItem(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrdersToDTO(orders))
}

func (h *Handler) OrdersV31(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", defaultOffset)
	limit := queryInt(r, "limit", defaultLimit)

	orders, err := h.queries.FindOrdersPaged(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrdersToDTO(orders))
}

func (h *Handler) OrdersV4(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindOrderQueryDTOs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) OrdersV5(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindOrderQueryDTOsOptimized(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) OrdersV6(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindOrderQueryDTOsFlat(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) SimpleOrdersV2(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindSimpleOrdersNaive(r.Context(), app.OrderSearch{})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSimpleOrders(orders))
}

func (h *Handler) SimpleOrdersV3(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.FindSimpleOrdersFetchJoin(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSimpleOrders(orders))
}

func (h *Handler) SimpleOrdersV4(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.FindSimpleOrderDTOs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSimpleQueryDTOs(rows))
}
