package tickets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/tickets"
	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/handler/http/middleware"
)

type TicketHandler struct {
	service tickets.TicketService
	logger  *zap.Logger
}

func NewTicketHandler(s tickets.TicketService, l *zap.Logger) *TicketHandler {
	return &TicketHandler{service: s, logger: l}
}

func (h *TicketHandler) writeTicketError(w http.ResponseWriter, err error, ticketID string) {
	switch {
	case errors.Is(err, tickets.ErrInvalidTicket), errors.Is(err, domain.ErrInvalidTicketStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrTicketNotFound):
		http.Error(w, "Ticket not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrTicketAlreadyClaimed):
		http.Error(w, "Ticket already claimed", http.StatusConflict)
	case errors.Is(err, domain.ErrTicketTerminal):
		http.Error(w, "Ticket is in a terminal status", http.StatusConflict)
	default:
		h.logger.Error("Ticket operation failed", zap.String("ticket_id", ticketID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req tickets.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateTicket", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.CreateTicket(r.Context(), actor, &req)
	if err != nil {
		h.writeTicketError(w, err, "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	res, err := h.service.GetTicket(r.Context(), actor, ticketID)
	if err != nil {
		h.writeTicketError(w, err, ticketID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *TicketHandler) ClaimTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	res, err := h.service.Claim(r.Context(), actor, ticketID)
	if err != nil {
		h.writeTicketError(w, err, ticketID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type assignRequest struct {
	StaffID string `json:"staff_id"`
}

func (h *TicketHandler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for AssignTicket", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Assign(r.Context(), actor, ticketID, req.StaffID)
	if err != nil {
		h.writeTicketError(w, err, ticketID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type statusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

func (h *TicketHandler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateTicketStatus", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.UpdateStatus(r.Context(), actor, ticketID, req.Status)
	if err != nil {
		h.writeTicketError(w, err, ticketID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *TicketHandler) AddAdminNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for AddAdminNote", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.AddAdminNote(r.Context(), actor, ticketID, req.Note)
	if err != nil {
		h.writeTicketError(w, err, ticketID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
