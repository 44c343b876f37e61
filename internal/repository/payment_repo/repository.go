package payment_repo

import (
	"context"

	"github.com/sabing2005/meal-backend/internal/domain"
)

// PaymentRepository persists the single payment row per order. All status
// writes are conditional so that success stays sticky: no method here can
// move a payment out of "success".
type PaymentRepository interface {
	// UpsertPendingTx creates the payment row for the order, or resets a
	// non-success row to a fresh pending attempt with the new method and
	// amount. Returns domain.ErrPaymentAlreadyCompleted when the existing
	// row is already success.
	UpsertPendingTx(ctx context.Context, q domain.Querier, payment *domain.Payment) (*domain.Payment, error)

	GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Payment, error)
	GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Payment, error)
	GetByIntentIDTx(ctx context.Context, q domain.Querier, intentID string) (*domain.Payment, error)

	// MarkProcessingTx records the claimed signature and flips the row to
	// processing. Returns false when the row is already success.
	MarkProcessingTx(ctx context.Context, q domain.Querier, id, txSignature string) (bool, error)

	// MarkSucceededTx settles the attempt by payment id; resolvedAmount
	// is the chain-observed amount in minor units. Returns true only on
	// the first transition into success.
	MarkSucceededTx(ctx context.Context, q domain.Querier, id string, resolvedAmount int64) (bool, error)

	// MarkSucceededByOrderTx settles by order reference (webhook path),
	// recording the processor's intent id. Returns true only on the first
	// transition into success.
	MarkSucceededByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID string) (bool, error)

	// MarkFailedTx / MarkFailedByOrderTx persist a terminal failure with
	// its human-readable reason. Both are no-ops (false) when the row is
	// already success.
	MarkFailedTx(ctx context.Context, q domain.Querier, id, reason string) (bool, error)
	MarkFailedByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID, reason string) (bool, error)
}
