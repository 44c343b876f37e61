package reconciler

import "github.com/sabing2005/meal-backend/internal/domain"

// Processor event types the reconciler understands. Anything else is
// acknowledged and ignored so new processor event kinds cannot break us.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// PaymentIntent is the processor's payment object embedded in a webhook
// event. Metadata may be absent on older intents, in which case lookup
// falls back to the intent id.
type PaymentIntent struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// ProcessorEvent is a verified, parsed webhook delivery. Raw holds the
// original payload for the audit trail.
type ProcessorEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object PaymentIntent `json:"object"`
	} `json:"data"`
	Raw []byte `json:"-"`
}

type InitiatePaymentRequest struct {
	OrderID string               `json:"order_id"`
	UserID  string               `json:"user_id"`
	Method  domain.PaymentMethod `json:"method"`

	// AmountSol is the client-quoted SOL amount for the on-chain rail.
	// It seeds the expected lamports; verification checks the chain's
	// actual balance delta against it, never the other way round.
	AmountSol float64 `json:"amount_sol,omitempty"`
}

type ConfirmChainPaymentRequest struct {
	PaymentID   string `json:"payment_id"`
	TxSignature string `json:"tx_signature"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"order_id"`
	Method        domain.PaymentMethod `json:"method"`
	Status        domain.PaymentStatus `json:"status"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	Reference     string               `json:"reference,omitempty"`
	Recipient     string               `json:"recipient,omitempty"`
	TxSignature   string               `json:"tx_signature,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
}

func mapPaymentToResponse(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		Status:        p.Status,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Reference:     p.Reference,
		Recipient:     p.Recipient,
		TxSignature:   p.TxSignature,
		FailureReason: p.FailureReason,
	}
}
