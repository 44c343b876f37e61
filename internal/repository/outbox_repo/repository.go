package outbox_repo

import (
	"context"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type OutboxRepository interface {
	CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error
	GetUnsentMessages(ctx context.Context) ([]*domain.OutboxMessage, error)
	MarkMessageSent(ctx context.Context, id string) error
}
