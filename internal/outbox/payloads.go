package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/util"
)

// NewMessage wraps an already-marshaled payload in a pending outbox row.
func NewMessage(topic string, payload []byte) *domain.OutboxMessage {
	return &domain.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     topic,
		Payload:   payload,
		Status:    domain.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

func PrepareOrderStatusChangedMessage(orderID string, oldStatus, newStatus domain.OrderStatus) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.OrderStatusChangedEvent{
		OrderID:   orderID,
		OldStatus: domain.NormalizeOrderStatus(oldStatus),
		NewStatus: domain.NormalizeOrderStatus(newStatus),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order status event: %w", err)
	}
	return NewMessage(domain.TopicOrderEvents, payload), nil
}

func PreparePaymentResolvedMessage(orderID string, method domain.PaymentMethod, status domain.PaymentStatus, failureReason string) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.PaymentResolvedEvent{
		OrderID:       orderID,
		Method:        method,
		Status:        status,
		FailureReason: failureReason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment resolved event: %w", err)
	}
	return NewMessage(domain.TopicPaymentEvents, payload), nil
}

func PrepareTicketCreatedMessage(ticketID, orderID string) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.TicketCreatedEvent{TicketID: ticketID, OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket created event: %w", err)
	}
	return NewMessage(domain.TopicTicketEvents, payload), nil
}

func PrepareTicketClaimedMessage(ticketID, staffID string) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.TicketClaimedEvent{TicketID: ticketID, StaffID: staffID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket claimed event: %w", err)
	}
	return NewMessage(domain.TopicTicketEvents, payload), nil
}

func PrepareTicketStatusChangedMessage(ticketID string, status domain.TicketStatus, orderStatus domain.OrderStatus) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.TicketStatusChangedEvent{
		TicketID:    ticketID,
		Status:      status,
		OrderStatus: domain.NormalizeOrderStatus(orderStatus),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket status event: %w", err)
	}
	return NewMessage(domain.TopicTicketEvents, payload), nil
}

func PrepareVerificationTaskMessage(paymentID, orderID, txSignature string) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(domain.VerificationTask{
		PaymentID:   paymentID,
		OrderID:     orderID,
		TxSignature: txSignature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification task: %w", err)
	}
	return NewMessage(domain.TopicVerificationTasks, payload), nil
}
