package ticket_repo

import (
	"context"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type TicketRepository interface {
	// CreateIfAbsentTx inserts the ticket unless one already exists for
	// the order (unique order_id constraint). Returns true when this call
	// created the row.
	CreateIfAbsentTx(ctx context.Context, q domain.Querier, ticket *domain.Ticket) (bool, error)

	GetByTicketIDTx(ctx context.Context, q domain.Querier, ticketID string) (*domain.Ticket, error)
	GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Ticket, error)

	// ClaimTx is the single compare-and-set: it succeeds only when
	// claimed_by is currently null. Returns false when the CAS lost.
	ClaimTx(ctx context.Context, q domain.Querier, ticketID, staffID string) (bool, error)

	// AssignTx sets claimed_by unconditionally (administrator override).
	AssignTx(ctx context.Context, q domain.Querier, ticketID, staffID string) error

	// UpdateStatusTx moves the ticket from OPEN to newStatus. Returns
	// false when the ticket was not OPEN at write time.
	UpdateStatusTx(ctx context.Context, q domain.Querier, ticketID string, newStatus domain.TicketStatus) (bool, error)

	AddNoteTx(ctx context.Context, q domain.Querier, ticketID, note string) error
}
