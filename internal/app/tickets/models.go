package tickets

import (
	"time"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type CreateTicketRequest struct {
	OrderID  string                `json:"order_id"`
	Subject  string                `json:"subject"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

type TicketResponse struct {
	TicketID   string                `json:"ticket_id"`
	OrderID    string                `json:"order_id"`
	UserID     string                `json:"user_id"`
	ClaimedBy  *string               `json:"claimed_by,omitempty"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	Category   string                `json:"category"`
	Subject    string                `json:"subject"`
	AdminNotes []string              `json:"admin_notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func mapTicketToResponse(t *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		TicketID:   t.TicketID,
		OrderID:    t.OrderID,
		UserID:     t.UserID,
		ClaimedBy:  t.ClaimedBy,
		Status:     t.Status,
		Priority:   t.Priority,
		Category:   t.Category,
		Subject:    t.Subject,
		AdminNotes: t.AdminNotes,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
