package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/repository/payment_repo"
)

type pgPaymentRepository struct {
	logger *zap.Logger
}

func NewPaymentRepository(l *zap.Logger) payment_repo.PaymentRepository {
	return &pgPaymentRepository{logger: l}
}

const paymentColumns = `id, order_id, user_id, method, status, amount, currency, failure_reason, recipient, tx_signature, reference, stripe_payment_intent_id, created_at, updated_at`

func (r *pgPaymentRepository) UpsertPendingTx(ctx context.Context, q domain.Querier, payment *domain.Payment) (*domain.Payment, error) {
	// One row per order: a retry with a different method updates the
	// existing attempt in place. The WHERE clause keeps success sticky.
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (order_id) DO UPDATE SET
			method = EXCLUDED.method,
			status = EXCLUDED.status,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			failure_reason = '',
			recipient = EXCLUDED.recipient,
			tx_signature = EXCLUDED.tx_signature,
			reference = EXCLUDED.reference,
			stripe_payment_intent_id = EXCLUDED.stripe_payment_intent_id,
			updated_at = EXCLUDED.updated_at
		WHERE payments.status <> 'success'
		RETURNING ` + paymentColumns

	row := q.QueryRowContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.UserID,
		string(payment.Method),
		string(domain.PaymentStatusPending),
		payment.Amount,
		payment.Currency,
		"",
		payment.Recipient,
		payment.TxSignature,
		payment.Reference,
		payment.StripePaymentIntentID,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	upserted, err := scanPayment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The conflict target existed but the WHERE guard rejected
			// the update: the payment is already settled.
			return nil, domain.ErrPaymentAlreadyCompleted
		}
		r.logger.Error("Failed to upsert pending payment", zap.String("order_id", payment.OrderID), zap.Error(err))
		return nil, fmt.Errorf("failed to upsert payment for order %s: %w", payment.OrderID, err)
	}
	return upserted, nil
}

func scanPayment(scan func(dest ...any) error) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := scan(
		&p.ID,
		&p.OrderID,
		&p.UserID,
		&p.Method,
		&p.Status,
		&p.Amount,
		&p.Currency,
		&p.FailureReason,
		&p.Recipient,
		&p.TxSignature,
		&p.Reference,
		&p.StripePaymentIntentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPaymentRepository) getWhere(ctx context.Context, q domain.Querier, where string, arg any) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where
	payment, err := scanPayment(q.QueryRowContext(ctx, query, arg).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (r *pgPaymentRepository) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Payment, error) {
	return r.getWhere(ctx, q, `id = $1`, id)
}

func (r *pgPaymentRepository) GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Payment, error) {
	return r.getWhere(ctx, q, `order_id = $1`, orderID)
}

func (r *pgPaymentRepository) GetByIntentIDTx(ctx context.Context, q domain.Querier, intentID string) (*domain.Payment, error) {
	return r.getWhere(ctx, q, `stripe_payment_intent_id = $1`, intentID)
}

func (r *pgPaymentRepository) MarkProcessingTx(ctx context.Context, q domain.Querier, id, txSignature string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'processing', tx_signature = $2, updated_at = $3
		WHERE id = $1 AND status <> 'success'
	`
	return r.execConditional(ctx, q, query, id, txSignature, time.Now())
}

func (r *pgPaymentRepository) MarkSucceededTx(ctx context.Context, q domain.Querier, id string, resolvedAmount int64) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'success', amount = $2, failure_reason = '', updated_at = $3
		WHERE id = $1 AND status <> 'success'
	`
	return r.execConditional(ctx, q, query, id, resolvedAmount, time.Now())
}

func (r *pgPaymentRepository) MarkSucceededByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'success', stripe_payment_intent_id = $2, failure_reason = '', updated_at = $3
		WHERE order_id = $1 AND status <> 'success'
	`
	return r.execConditional(ctx, q, query, orderID, intentID, time.Now())
}

func (r *pgPaymentRepository) MarkFailedTx(ctx context.Context, q domain.Querier, id, reason string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = $3
		WHERE id = $1 AND status <> 'success'
	`
	return r.execConditional(ctx, q, query, id, reason, time.Now())
}

func (r *pgPaymentRepository) MarkFailedByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID, reason string) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'failed', stripe_payment_intent_id = $2, failure_reason = $3, updated_at = $4
		WHERE order_id = $1 AND status <> 'success'
	`
	res, err := q.ExecContext(ctx, query, orderID, intentID, reason, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *pgPaymentRepository) execConditional(ctx context.Context, q domain.Querier, query string, args ...any) (bool, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update payment: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}
