package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/infrastructure/kafka"
	"github.com/sabing2005/meal-backend/internal/repository/outbox_repo"
)

// Processor drains pending outbox messages to Kafka. Delivery is
// at-least-once from the outbox's perspective; consumers dedupe.
type Processor struct {
	outboxRepo outbox_repo.OutboxRepository
	producer   kafka.Producer
	logger     *zap.Logger
}

func NewProcessor(outboxRepo outbox_repo.OutboxRepository, producer kafka.Producer, logger *zap.Logger) *Processor {
	return &Processor{outboxRepo: outboxRepo, producer: producer, logger: logger}
}

func (p *Processor) ProcessPending(ctx context.Context) error {
	messages, err := p.outboxRepo.GetUnsentMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to get unsent outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Processing unsent outbox messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Topic, msg.Payload); err != nil {
			p.logger.Error("Failed to produce outbox message",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			continue
		}
		if err := p.outboxRepo.MarkMessageSent(ctx, msg.ID); err != nil {
			p.logger.Error("Failed to mark outbox message as sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return nil
}
