package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/ledger"
	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/handler/http/middleware"
)

type OrderHandler struct {
	service ledger.LedgerService
	logger  *zap.Logger
}

func NewOrderHandler(s ledger.LedgerService, l *zap.Logger) *OrderHandler {
	return &OrderHandler{service: s, logger: l}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ledger.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateOrder", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = actor.ID

	res, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidOrder):
			h.logger.Warn("Bad request for CreateOrder", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrUsageLimitExceeded), errors.Is(err, domain.ErrActiveOrderLimitExceeded):
			h.logger.Info("Usage limit hit for CreateOrder",
				zap.String("user_id", actor.ID), zap.Error(err))
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("Error creating order", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.logger.Info("Order not found", zap.String("order_id", orderID))
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	if !actor.IsAdmin() && !actor.IsStaff() && res.UserID != actor.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.service.GetOrdersByUser(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("Error getting orders for user", zap.String("user_id", actor.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type transitionRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *OrderHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for TransitionStatus", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.TransitionStatus(r.Context(), orderID, req.Status, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidOrderTransition), errors.Is(err, ledger.ErrInvalidOrder):
			h.logger.Info("Rejected order transition",
				zap.String("order_id", orderID),
				zap.String("status", string(req.Status)))
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			h.logger.Error("Error transitioning order", zap.String("order_id", orderID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
