package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jcmexdev/coffee-sagas/internal/gateway/httpx/middlewares"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/metrics"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/orders", handler.StartOrder)
	r.Get("/orders/{id}", handler.GetOrderStatus)
	r.Post("/orders/{id}/cancel", handler.CancelOrder)
	r.Get("/orders/{id}/result", handler.GetOrderResult)

	r.Handle("/metrics", metrics.Handler())
	return r
}
