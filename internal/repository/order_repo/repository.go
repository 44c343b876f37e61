package order_repo

import (
	"context"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type OrderRepository interface {
	CreateTx(ctx context.Context, q domain.Querier, order *domain.Order) error
	GetByIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Order, error)
	ListByUserTx(ctx context.Context, q domain.Querier, userID string) ([]*domain.Order, error)

	// LockUserCartTx serializes concurrent order creation for one
	// (user, cart_url) pair for the remainder of the transaction, so the
	// usage-limit counts below cannot race an insert.
	LockUserCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) error
	CountByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error)
	CountActiveByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error)

	// AdvanceStatusTx conditionally moves the order to newStatus when its
	// current status is one of allowedFrom. Returns false when no row
	// changed, which callers treat as the idempotent no-op path.
	AdvanceStatusTx(ctx context.Context, q domain.Querier, orderID string, newStatus domain.OrderStatus, allowedFrom ...domain.OrderStatus) (bool, error)
}
