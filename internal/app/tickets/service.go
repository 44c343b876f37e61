package tickets

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/outbox"
	"github.com/sabing2005/meal-backend/internal/repository/order_repo"
	"github.com/sabing2005/meal-backend/internal/repository/outbox_repo"
	"github.com/sabing2005/meal-backend/internal/repository/ticket_repo"
	"github.com/sabing2005/meal-backend/internal/util"
)

var ErrInvalidTicket = errors.New("invalid ticket data")

// TicketService coordinates the support workflow around an order. Claim
// ownership is exclusive and status moves are one-way out of OPEN.
type TicketService interface {
	CreateTicket(ctx context.Context, actor domain.Actor, req *CreateTicketRequest) (*TicketResponse, error)
	GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*TicketResponse, error)
	Claim(ctx context.Context, actor domain.Actor, ticketID string) (*TicketResponse, error)
	Assign(ctx context.Context, actor domain.Actor, ticketID, staffID string) (*TicketResponse, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus) (*TicketResponse, error)
	AddAdminNote(ctx context.Context, actor domain.Actor, ticketID, note string) (*TicketResponse, error)
}

type ticketService struct {
	txm        domain.TxManager
	ticketRepo ticket_repo.TicketRepository
	orderRepo  order_repo.OrderRepository
	outboxRepo outbox_repo.OutboxRepository
	logger     *zap.Logger
}

func NewTicketService(
	txm domain.TxManager,
	ticketRepo ticket_repo.TicketRepository,
	orderRepo order_repo.OrderRepository,
	outboxRepo outbox_repo.OutboxRepository,
	logger *zap.Logger,
) TicketService {
	return &ticketService{
		txm:        txm,
		ticketRepo: ticketRepo,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateTicket is idempotent per order: a second create for the same
// order returns the existing ticket and emits nothing.
func (s *ticketService) CreateTicket(ctx context.Context, actor domain.Actor, req *CreateTicketRequest) (*TicketResponse, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidTicket
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	switch priority {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh:
	default:
		return nil, ErrInvalidTicket
	}

	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		order, err := s.orderRepo.GetByIDTx(ctx, q, req.OrderID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.IsStaff() && order.UserID != actor.ID {
			return domain.ErrForbidden
		}

		now := time.Now()
		ticket := &domain.Ticket{
			TicketID:  util.GenerateTicketID(),
			OrderID:   order.OrderID,
			UserID:    order.UserID,
			Status:    domain.TicketStatusOpen,
			Priority:  priority,
			Category:  req.Category,
			Subject:   req.Subject,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, err := s.ticketRepo.CreateIfAbsentTx(ctx, q, ticket)
		if err != nil {
			return err
		}
		if !created {
			existing, err := s.ticketRepo.GetByOrderIDTx(ctx, q, order.OrderID)
			if err != nil {
				return err
			}
			resp = mapTicketToResponse(existing)
			return nil
		}

		msg, err := outbox.PrepareTicketCreatedMessage(ticket.TicketID, order.OrderID)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ticketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*TicketResponse, error) {
	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		ticket, err := s.ticketRepo.GetByTicketIDTx(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !actor.IsStaff() && ticket.UserID != actor.ID {
			return domain.ErrForbidden
		}
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Claim takes exclusive ownership of an unclaimed ticket. The write is a
// single compare-and-set in the store, so exactly one of any set of
// concurrent claimants wins.
func (s *ticketService) Claim(ctx context.Context, actor domain.Actor, ticketID string) (*TicketResponse, error) {
	if !actor.IsAdmin() && !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}

	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		ticket, err := s.ticketRepo.GetByTicketIDTx(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if domain.IsTerminalTicketStatus(ticket.Status) {
			return domain.ErrTicketTerminal
		}

		won, err := s.ticketRepo.ClaimTx(ctx, q, ticketID, actor.ID)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrTicketAlreadyClaimed
		}
		staffID := actor.ID
		ticket.ClaimedBy = &staffID

		msg, err := outbox.PrepareTicketClaimedMessage(ticketID, actor.ID)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket claimed",
		zap.String("ticket_id", ticketID),
		zap.String("staff_id", actor.ID))
	return resp, nil
}

// Assign is the administrator override: it reassigns ownership without
// the null check the claim path relies on.
func (s *ticketService) Assign(ctx context.Context, actor domain.Actor, ticketID, staffID string) (*TicketResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if staffID == "" {
		return nil, ErrInvalidTicket
	}

	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		ticket, err := s.ticketRepo.GetByTicketIDTx(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if domain.IsTerminalTicketStatus(ticket.Status) {
			return domain.ErrTicketTerminal
		}

		if err := s.ticketRepo.AssignTx(ctx, q, ticketID, staffID); err != nil {
			return err
		}
		ticket.ClaimedBy = &staffID

		msg, err := outbox.PrepareTicketClaimedMessage(ticketID, staffID)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket assigned",
		zap.String("ticket_id", ticketID),
		zap.String("staff_id", staffID),
		zap.String("actor_id", actor.ID))
	return resp, nil
}

// UpdateStatus moves an OPEN ticket to a terminal status. Administrators
// may always transition, staff only tickets they claimed, and the
// submitter only their own ticket to CANCELLED or CLOSED. RESOLVED also
// advances the order, idempotently.
func (s *ticketService) UpdateStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus) (*TicketResponse, error) {
	if !domain.IsValidTicketStatus(newStatus) || newStatus == domain.TicketStatusOpen {
		return nil, domain.ErrInvalidTicketStatus
	}

	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		ticket, err := s.ticketRepo.GetByTicketIDTx(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if domain.IsTerminalTicketStatus(ticket.Status) {
			return domain.ErrTicketTerminal
		}

		if err := authorizeStatusChange(actor, ticket, newStatus); err != nil {
			return err
		}

		changed, err := s.ticketRepo.UpdateStatusTx(ctx, q, ticketID, newStatus)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrTicketTerminal
		}
		ticket.Status = newStatus

		order, err := s.orderRepo.GetByIDTx(ctx, q, ticket.OrderID)
		if err != nil {
			return err
		}
		orderStatus := order.Status

		if newStatus == domain.TicketStatusResolved {
			advanced, err := s.orderRepo.AdvanceStatusTx(ctx, q, ticket.OrderID, domain.OrderStatusPlaced, domain.OrderStatusPending)
			if err != nil {
				return err
			}
			if advanced {
				orderMsg, err := outbox.PrepareOrderStatusChangedMessage(ticket.OrderID, order.Status, domain.OrderStatusPlaced)
				if err != nil {
					return err
				}
				if err := s.outboxRepo.CreateMessageTx(ctx, q, orderMsg); err != nil {
					return err
				}
				orderStatus = domain.OrderStatusPlaced
			}
		}

		msg, err := outbox.PrepareTicketStatusChangedMessage(ticketID, newStatus, orderStatus)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket status updated",
		zap.String("ticket_id", ticketID),
		zap.String("status", string(newStatus)),
		zap.String("actor_id", actor.ID))
	return resp, nil
}

func authorizeStatusChange(actor domain.Actor, ticket *domain.Ticket, newStatus domain.TicketStatus) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsStaff() {
		if ticket.ClaimedBy == nil || *ticket.ClaimedBy != actor.ID {
			return domain.ErrForbidden
		}
		return nil
	}
	// The submitter may withdraw their own ticket, but resolution stays
	// with staff.
	if ticket.UserID != actor.ID {
		return domain.ErrForbidden
	}
	if newStatus != domain.TicketStatusCancelled && newStatus != domain.TicketStatusClosed {
		return domain.ErrForbidden
	}
	return nil
}

func (s *ticketService) AddAdminNote(ctx context.Context, actor domain.Actor, ticketID, note string) (*TicketResponse, error) {
	if note == "" {
		return nil, ErrInvalidTicket
	}

	var resp *TicketResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		ticket, err := s.ticketRepo.GetByTicketIDTx(ctx, q, ticketID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			if !actor.IsStaff() || ticket.ClaimedBy == nil || *ticket.ClaimedBy != actor.ID {
				return domain.ErrForbidden
			}
		}

		if err := s.ticketRepo.AddNoteTx(ctx, q, ticketID, note); err != nil {
			return err
		}
		ticket.AdminNotes = append(ticket.AdminNotes, note)
		resp = mapTicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
