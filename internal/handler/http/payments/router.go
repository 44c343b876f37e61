package payments

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/reconciler"
)

// RegisterRoutes mounts the authenticated payment endpoints.
func RegisterRoutes(r chi.Router, s reconciler.ReconcilerService, webhookSecret string, l *zap.Logger) {
	handler := NewPaymentHandler(s, webhookSecret, l.With(zap.String("component", "PaymentHTTPHandler")))

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", handler.InitiatePayment)
		r.Post("/{paymentID}/confirm", handler.ConfirmChainPayment)
		r.Get("/order/{orderID}", handler.GetPaymentByOrder)
	})
}

// RegisterWebhookRoutes mounts the processor callback outside the actor
// middleware. Authenticity comes from the signed payload.
func RegisterWebhookRoutes(r chi.Router, s reconciler.ReconcilerService, webhookSecret string, l *zap.Logger) {
	handler := NewPaymentHandler(s, webhookSecret, l.With(zap.String("component", "WebhookHTTPHandler")))

	r.Post("/webhooks/processor", handler.ProcessorWebhook)
}
