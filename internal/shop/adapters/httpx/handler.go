package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/jpashop-orders/internal/pkg/cache"
	"github.com/jcmexdev/jpashop-orders/internal/shop/app"
	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

const (
	defaultOffset = 0
	defaultLimit  = 100

	placeOrderOperation = "place_order"
)

// Services groups the application services the handler serves.
type Services struct {
	Members *app.MemberService
	Items   *app.ItemService
	Orders  *app.OrderService
	Queries *app.OrderQueryService
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles the shop's HTTP API.
type Handler struct {
	members *app.MemberService
	items   *app.ItemService
	orders  *app.OrderService
	queries *app.OrderQueryService

	cache          cache.Cache
	idempotencyTTL time.Duration
	db             Pinger
}

// NewHandler wires the services. c stores idempotency keys for order
// placement for ttl.
func NewHandler(s Services, c cache.Cache, ttl time.Duration, db Pinger) *Handler {
	return &Handler{
		members:        s.Members,
		items:          s.Items,
		orders:         s.Orders,
		queries:        s.Queries,
		cache:          c,
		idempotencyTTL: ttl,
		db:             db,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", app.ErrInvalidInput)
	}
	return id, nil
}

// queryInt falls back to def when the parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// mapErr translates service errors into an HTTP status and error code.
func mapErr(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	case errors.Is(err, domain.ErrNotEnoughStock):
		return http.StatusConflict, "not_enough_stock"
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return http.StatusConflict, "already_cancelled"
	case errors.Is(err, domain.ErrAlreadyDelivered):
		return http.StatusConflict, "already_delivered"
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrEmptyOrder):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapErr(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
