package tickets

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/tickets"
)

func RegisterRoutes(r chi.Router, s tickets.TicketService, l *zap.Logger) {
	handler := NewTicketHandler(s, l.With(zap.String("component", "TicketHTTPHandler")))

	r.Route("/tickets", func(r chi.Router) {
		r.Post("/", handler.CreateTicket)
		r.Get("/{ticketID}", handler.GetTicket)
		r.Post("/{ticketID}/claim", handler.ClaimTicket)
		r.Post("/{ticketID}/assign", handler.AssignTicket)
		r.Patch("/{ticketID}/status", handler.UpdateTicketStatus)
		r.Post("/{ticketID}/notes", handler.AddAdminNote)
	})
}
