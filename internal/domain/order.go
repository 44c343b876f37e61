package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"

	// OrderStatusDelivered is a legacy value written by older clients.
	// It must never be persisted; every write and read path rewrites it
	// to PLACED via NormalizeOrderStatus.
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// NormalizeOrderStatus rewrites the legacy DELIVERED value to PLACED.
func NormalizeOrderStatus(s OrderStatus) OrderStatus {
	if s == OrderStatusDelivered {
		return OrderStatusPlaced
	}
	return s
}

// IsValidOrderStatus reports whether s is an accepted status value.
// DELIVERED is accepted on input for backward compatibility.
func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPlaced, OrderStatusCancelled, OrderStatusRefunded, OrderStatusDelivered:
		return true
	}
	return false
}

// CanTransitionOrder reports whether the from→to transition is legal.
// Both sides are normalized first, so a stored DELIVERED behaves as PLACED.
func CanTransitionOrder(from, to OrderStatus) bool {
	from = NormalizeOrderStatus(from)
	to = NormalizeOrderStatus(to)
	switch from {
	case OrderStatusPending:
		return to == OrderStatusPlaced || to == OrderStatusCancelled
	case OrderStatusPlaced:
		return to == OrderStatusCancelled || to == OrderStatusRefunded
	}
	return false
}

// PricingOption is one row of the precomputed per-rail discount table.
// All amounts are integer minor units.
type PricingOption struct {
	DiscountPercent int   `json:"discount_percent"`
	DiscountAmount  int64 `json:"discount_amount"`
	FinalTotal      int64 `json:"final_total"`
}

// PricingOptions keys the discount table by payment rail.
type PricingOptions struct {
	Sol  PricingOption `json:"sol"`
	Spl  PricingOption `json:"spl"`
	Card PricingOption `json:"card"`
}

const (
	discountPercentSol  = 40
	discountPercentSpl  = 70
	discountPercentCard = 0
)

// ComputePricingOptions builds the discount table from the gross total
// in minor units. Discounts round half away from zero on the product,
// matching how order totals were priced historically.
func ComputePricingOptions(gross int64) PricingOptions {
	option := func(percent int) PricingOption {
		discount := (gross*int64(percent) + 50) / 100
		return PricingOption{
			DiscountPercent: percent,
			DiscountAmount:  discount,
			FinalTotal:      gross - discount,
		}
	}
	return PricingOptions{
		Sol:  option(discountPercentSol),
		Spl:  option(discountPercentSpl),
		Card: option(discountPercentCard),
	}
}

// OptionFor returns the pricing row for a payment method.
func (p PricingOptions) OptionFor(method PaymentMethod) (PricingOption, bool) {
	switch method {
	case PaymentMethodSolana:
		return p.Sol, true
	case PaymentMethodToken:
		return p.Spl, true
	case PaymentMethodCard:
		return p.Card, true
	}
	return PricingOption{}, false
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type Order struct {
	OrderID        string
	UserID         string
	CartURL        string
	Status         OrderStatus
	Subtotal       int64
	DeliveryFee    int64
	Total          int64
	Currency       string
	PricingOptions PricingOptions
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
