package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/reconciler"
	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/handler/http/middleware"
	"github.com/sabing2005/meal-backend/internal/webhook"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service       reconciler.ReconcilerService
	webhookSecret string
	logger        *zap.Logger
}

func NewPaymentHandler(s reconciler.ReconcilerService, webhookSecret string, l *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: s, webhookSecret: webhookSecret, logger: l}
}

func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req reconciler.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for InitiatePayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = actor.ID

	res, err := h.service.InitiatePayment(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, reconciler.ErrInvalidPayment):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, domain.ErrPaymentAlreadyCompleted):
			http.Error(w, "Payment already completed", http.StatusConflict)
		default:
			h.logger.Error("Error initiating payment", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

type confirmRequest struct {
	TxSignature string `json:"tx_signature"`
}

func (h *PaymentHandler) ConfirmChainPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		http.Error(w, "Payment ID is required", http.StatusBadRequest)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for ConfirmChainPayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.ConfirmChainPayment(r.Context(), &reconciler.ConfirmChainPaymentRequest{
		PaymentID:   paymentID,
		TxSignature: req.TxSignature,
	})
	if err != nil {
		switch {
		case errors.Is(err, reconciler.ErrInvalidPayment):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrPaymentNotFound):
			http.Error(w, "Payment not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrPaymentMethodMismatch):
			http.Error(w, "Payment method mismatch", http.StatusConflict)
		default:
			h.logger.Error("Error confirming chain payment",
				zap.String("payment_id", paymentID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(res)
}

func (h *PaymentHandler) GetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetPaymentByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting payment", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	if !actor.IsAdmin() && !actor.IsStaff() {
		res.Recipient = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// ProcessorWebhook verifies the processor's signature before touching any
// state. An invalid signature is a forged request, not a retryable error.
func (h *PaymentHandler) ProcessorWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	header := r.Header.Get("Stripe-Signature")
	if err := webhook.VerifySignature(payload, header, h.webhookSecret, webhook.DefaultTolerance, time.Now()); err != nil {
		h.logger.Warn("Webhook signature verification failed", zap.Error(err))
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var event reconciler.ProcessorEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Warn("Failed to parse webhook event", zap.Error(err))
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	event.Raw = payload

	if err := h.service.HandleProcessorEvent(r.Context(), &event); err != nil {
		if errors.Is(err, reconciler.ErrInvalidPayment) {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		h.logger.Error("Error handling processor event",
			zap.String("event_id", event.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
