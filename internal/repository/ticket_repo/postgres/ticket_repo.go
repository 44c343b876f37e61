package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/repository/ticket_repo"
)

type pgTicketRepository struct {
	logger *zap.Logger
}

func NewTicketRepository(l *zap.Logger) ticket_repo.TicketRepository {
	return &pgTicketRepository{logger: l}
}

const ticketColumns = `ticket_id, order_id, user_id, claimed_by, status, priority, category, subject, admin_notes, created_at, updated_at`

func (r *pgTicketRepository) CreateIfAbsentTx(ctx context.Context, q domain.Querier, ticket *domain.Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (order_id) DO NOTHING
	`
	var claimedBy sql.NullString
	if ticket.ClaimedBy != nil {
		claimedBy = sql.NullString{String: *ticket.ClaimedBy, Valid: true}
	}
	res, err := q.ExecContext(ctx, query,
		ticket.TicketID,
		ticket.OrderID,
		ticket.UserID,
		claimedBy,
		string(ticket.Status),
		string(ticket.Priority),
		ticket.Category,
		ticket.Subject,
		pq.StringArray(ticket.AdminNotes),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ticket", zap.String("order_id", ticket.OrderID), zap.Error(err))
		return false, fmt.Errorf("failed to create ticket for order %s: %w", ticket.OrderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanTicket(scan func(dest ...any) error) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var claimedBy sql.NullString
	var notes pq.StringArray
	err := scan(
		&t.TicketID,
		&t.OrderID,
		&t.UserID,
		&claimedBy,
		&t.Status,
		&t.Priority,
		&t.Category,
		&t.Subject,
		&notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if claimedBy.Valid {
		t.ClaimedBy = &claimedBy.String
	}
	t.AdminNotes = []string(notes)
	return t, nil
}

func (r *pgTicketRepository) getWhere(ctx context.Context, q domain.Querier, where string, arg any) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + where
	ticket, err := scanTicket(q.QueryRowContext(ctx, query, arg).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

func (r *pgTicketRepository) GetByTicketIDTx(ctx context.Context, q domain.Querier, ticketID string) (*domain.Ticket, error) {
	return r.getWhere(ctx, q, `ticket_id = $1`, ticketID)
}

func (r *pgTicketRepository) GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Ticket, error) {
	return r.getWhere(ctx, q, `order_id = $1`, orderID)
}

func (r *pgTicketRepository) ClaimTx(ctx context.Context, q domain.Querier, ticketID, staffID string) (bool, error) {
	query := `
		UPDATE tickets
		SET claimed_by = $2, updated_at = $3
		WHERE ticket_id = $1 AND claimed_by IS NULL AND status = 'OPEN'
	`
	res, err := q.ExecContext(ctx, query, ticketID, staffID, time.Now())
	if err != nil {
		r.logger.Error("Failed to claim ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return false, fmt.Errorf("failed to claim ticket %s: %w", ticketID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *pgTicketRepository) AssignTx(ctx context.Context, q domain.Querier, ticketID, staffID string) error {
	query := `UPDATE tickets SET claimed_by = $2, updated_at = $3 WHERE ticket_id = $1`
	res, err := q.ExecContext(ctx, query, ticketID, staffID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign ticket %s: %w", ticketID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *pgTicketRepository) UpdateStatusTx(ctx context.Context, q domain.Querier, ticketID string, newStatus domain.TicketStatus) (bool, error) {
	query := `
		UPDATE tickets
		SET status = $2, updated_at = $3
		WHERE ticket_id = $1 AND status = 'OPEN'
	`
	res, err := q.ExecContext(ctx, query, ticketID, string(newStatus), time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to update ticket %s status: %w", ticketID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *pgTicketRepository) AddNoteTx(ctx context.Context, q domain.Querier, ticketID, note string) error {
	query := `UPDATE tickets SET admin_notes = array_append(admin_notes, $2), updated_at = $3 WHERE ticket_id = $1`
	res, err := q.ExecContext(ctx, query, ticketID, note, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add note to ticket %s: %w", ticketID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}
