package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/middlewares"
	"github.com/AnitBishwas/swiss-event-handler/internal/config"
)

type CustomRouter struct {
	router *chi.Mux
	logger *slog.Logger
	cfg    *config.Config
}

func New(cfg *config.Config, log *slog.Logger) *CustomRouter {
	router := &CustomRouter{
		router: chi.NewRouter(),
		logger: log,
		cfg:    cfg,
	}

	return router
}

type WebhooksHandler interface {
	OrderCreate(w http.ResponseWriter, r *http.Request)
	OrderFulfillment(w http.ResponseWriter, r *http.Request)
	FulfillmentUpdate(w http.ResponseWriter, r *http.Request)
}

type EventsHandler interface {
	PostEvent(w http.ResponseWriter, r *http.Request)
}

type RefundsHandler interface {
	ReportCallback(w http.ResponseWriter, r *http.Request)
	RunRefund(w http.ResponseWriter, r *http.Request)
}

type HealthHandler interface {
	Ping(w http.ResponseWriter, r *http.Request)
}

type Handler interface {
	WebhooksHandler
	EventsHandler
	RefundsHandler
	HealthHandler
}

func (cr *CustomRouter) SetRouter(h Handler) {
	secret := []byte(cr.cfg.ShopifyAPISecret)

	cr.router.Route("/webhooks", func(r chi.Router) {
		r.Use(middlewares.WebhookVerification(secret, cr.logger))
		r.Post("/orders/create", h.OrderCreate)
		r.Post("/orders/fulfillment", h.OrderFulfillment)
		r.Post("/fulfillments/update", h.FulfillmentUpdate)
	})

	cr.router.Route("/public", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).
			Post("/events", h.PostEvent)
		r.Post("/shiprocket", h.ReportCallback)
	})

	cr.router.Route("/api", func(r chi.Router) {
		r.Use(middlewares.Authentication(secret, cr.logger))
		r.With(middleware.AllowContentType("application/json")).
			Post("/refunds/run", h.RunRefund)
	})

	cr.router.Get("/ping", h.Ping)

	cr.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w,
			http.StatusText(http.StatusMethodNotAllowed),
			http.StatusMethodNotAllowed)
	})
}

func (cr *CustomRouter) GetRouter() *chi.Mux {
	return cr.router
}
