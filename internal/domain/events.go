package domain

import "time"

// Kafka topics the outbox drains into. Verification tasks share the
// outbox machinery but are consumed by this service's own worker.
const (
	TopicOrderEvents       = "order_status_events"
	TopicPaymentEvents     = "payment_events"
	TopicTicketEvents      = "ticket_events"
	TopicVerificationTasks = "payment_verification_tasks"
)

type OrderStatusChangedEvent struct {
	OrderID   string      `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
}

type PaymentResolvedEvent struct {
	OrderID       string        `json:"order_id"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

type TicketCreatedEvent struct {
	TicketID string `json:"ticket_id"`
	OrderID  string `json:"order_id"`
}

type TicketClaimedEvent struct {
	TicketID string `json:"ticket_id"`
	StaffID  string `json:"staff_id"`
}

type TicketStatusChangedEvent struct {
	TicketID    string       `json:"ticket_id"`
	Status      TicketStatus `json:"status"`
	OrderStatus OrderStatus  `json:"order_status"`
}

// VerificationTask asks the chain-verification worker to settle an
// on-chain payment attempt.
type VerificationTask struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	TxSignature string `json:"tx_signature"`
}

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// OutboxMessage is written in the same transaction as the state change
// it describes and published asynchronously by the outbox processor.
type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	Status    OutboxStatus
	CreatedAt time.Time
	SentAt    *time.Time
}

// InboxMessage records a processed webhook delivery for deduplication.
type InboxMessage struct {
	ID         string
	EventType  string
	Payload    []byte
	ReceivedAt time.Time
}
