package domain

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidOrderTransition = errors.New("invalid order status transition")

	// Usage-limit invariants for a (user, cart_url) pair.
	ErrUsageLimitExceeded       = errors.New("cart link already used 3 times")
	ErrActiveOrderLimitExceeded = errors.New("3 active orders already exist for this cart link")

	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentMethodMismatch   = errors.New("payment method mismatch")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")

	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketAlreadyClaimed = errors.New("ticket already claimed")
	ErrTicketTerminal       = errors.New("ticket is in a terminal status")
	ErrInvalidTicketStatus  = errors.New("invalid ticket status")

	ErrForbidden = errors.New("forbidden")

	// ErrEventAlreadyProcessed marks a duplicate webhook delivery.
	ErrEventAlreadyProcessed = errors.New("event already processed")
)
