package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/jpashop-orders/internal/shop/adapters/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares.EnsureRequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middlewares.Trace)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/v1/orders", handler.OrdersV1)
		r.Get("/v2/orders", handler.OrdersV2)
		r.Get("/v3/orders", handler.OrdersV3)
		r.Get("/v3.1/orders", handler.OrdersV31)
		r.Get("/v4/orders", handler.OrdersV4)
		r.Get("/v5/orders", handler.OrdersV5)
		r.Get("/v6/orders", handler.OrdersV6)

		r.Get("/v2/simple-orders", handler.SimpleOrdersV2)
		r.Get("/v3/simple-orders", handler.SimpleOrdersV3)
		r.Get("/v4/simple-orders", handler.SimpleOrdersV4)

		r.Post("/orders", handler.PlaceOrder)
		r.Get("/orders/{id}", handler.GetOrder)
		r.Post("/orders/{id}/cancel", handler.CancelOrder)

		r.Get("/v2/members", handler.ListMembers)
		r.Post("/v2/members", handler.CreateMember)
		r.Put("/v2/members/{id}", handler.UpdateMember)

		r.Get("/items", handler.ListItems)
		r.Post("/items", handler.CreateItem)
		r.Put("/items/{id}", handler.UpdateItem)
	})
	return r
}
