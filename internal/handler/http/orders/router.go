package orders

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/ledger"
)

func RegisterRoutes(r chi.Router, s ledger.LedgerService, l *zap.Logger) {
	handler := NewOrderHandler(s, l.With(zap.String("component", "OrderHTTPHandler")))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.GetMyOrders)
		r.Get("/{orderID}", handler.GetOrder)
		r.Patch("/{orderID}/status", handler.TransitionStatus)
	})
}
