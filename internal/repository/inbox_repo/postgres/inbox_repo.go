package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/repository/inbox_repo"
)

type pgInboxRepository struct {
	logger *zap.Logger
}

func NewInboxRepository(l *zap.Logger) inbox_repo.InboxRepository {
	return &pgInboxRepository{logger: l}
}

func (r *pgInboxRepository) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.InboxMessage) error {
	query := `
		INSERT INTO inbox_messages (id, event_type, payload, received_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := q.ExecContext(ctx, query, msg.ID, msg.EventType, msg.Payload, msg.ReceivedAt)
	if err != nil {
		r.logger.Error("Failed to insert inbox message", zap.String("event_id", msg.ID), zap.Error(err))
		return fmt.Errorf("failed to insert inbox message: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrEventAlreadyProcessed
	}
	return nil
}
