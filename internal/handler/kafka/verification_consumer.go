package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/reconciler"
	"github.com/sabing2005/meal-backend/internal/domain"
)

// VerificationConsumer drains the verification task topic and runs the
// chain verifier for each queued payment.
type VerificationConsumer struct {
	service reconciler.ReconcilerService
	logger  *zap.Logger
}

func NewVerificationConsumer(s reconciler.ReconcilerService, l *zap.Logger) *VerificationConsumer {
	return &VerificationConsumer{service: s, logger: l}
}

func (c *VerificationConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var task domain.VerificationTask
	if err := json.Unmarshal(message, &task); err != nil {
		c.logger.Error("Error unmarshalling verification task", zap.Error(err), zap.String("raw_message", string(message)))
		return nil
	}

	c.logger.Info("Received verification task",
		zap.String("payment_id", task.PaymentID),
		zap.String("order_id", task.OrderID))

	if err := c.service.ProcessVerificationTask(ctx, &task); err != nil {
		c.logger.Error("Error processing verification task",
			zap.String("payment_id", task.PaymentID),
			zap.Error(err))
		return err
	}
	return nil
}
