package inbox_repo

import (
	"context"

	"github.com/sabing2005/meal-backend/internal/domain"
)

// InboxRepository records processed webhook deliveries. The unique event
// id constraint is what makes replayed deliveries no-ops.
type InboxRepository interface {
	// CreateMessageTx returns domain.ErrEventAlreadyProcessed when the
	// event id has been seen before.
	CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.InboxMessage) error
}
