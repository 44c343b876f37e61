package domain

import (
	"math"
	"time"
)

const LamportsPerSol = 1_000_000_000

// LamportsFromSol converts a SOL quantity to lamports, rounding to the
// nearest integer lamport.
func LamportsFromSol(sol float64) int64 {
	return int64(math.Round(sol * LamportsPerSol))
}

type PaymentMethod string

const (
	PaymentMethodSolana PaymentMethod = "solana"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodToken  PaymentMethod = "token"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodSolana, PaymentMethodCard, PaymentMethodToken:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// CurrencyFor maps a payment rail to the currency it settles in.
func CurrencyFor(method PaymentMethod) string {
	switch method {
	case PaymentMethodSolana:
		return "SOL"
	case PaymentMethodToken:
		return "USDC"
	default:
		return "USD"
	}
}

// Payment is the single payment attempt record for an order. Retried
// attempts update this row in place; it is never deleted.
type Payment struct {
	ID            string
	OrderID       string
	UserID        string
	Method        PaymentMethod
	Status        PaymentStatus
	Amount        int64
	Currency      string
	FailureReason string

	// On-chain rail
	Recipient   string
	TxSignature string
	Reference   string

	// Card rail
	StripePaymentIntentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}
