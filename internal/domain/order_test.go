package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusPlaced, NormalizeOrderStatus(OrderStatusDelivered))
	assert.Equal(t, OrderStatusPending, NormalizeOrderStatus(OrderStatusPending))
	assert.Equal(t, OrderStatusCancelled, NormalizeOrderStatus(OrderStatusCancelled))
}

func TestCanTransitionOrder(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPlaced, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusRefunded, false},
		{OrderStatusPlaced, OrderStatusCancelled, true},
		{OrderStatusPlaced, OrderStatusRefunded, true},
		{OrderStatusPlaced, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPlaced, false},
		{OrderStatusRefunded, OrderStatusCancelled, false},
		// legacy value behaves as PLACED on both sides
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusPending, OrderStatusDelivered, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionOrder(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestComputePricingOptions(t *testing.T) {
	opts := ComputePricingOptions(10_000)

	assert.Equal(t, PricingOption{DiscountPercent: 40, DiscountAmount: 4_000, FinalTotal: 6_000}, opts.Sol)
	assert.Equal(t, PricingOption{DiscountPercent: 70, DiscountAmount: 7_000, FinalTotal: 3_000}, opts.Spl)
	assert.Equal(t, PricingOption{DiscountPercent: 0, DiscountAmount: 0, FinalTotal: 10_000}, opts.Card)
}

func TestComputePricingOptionsRounding(t *testing.T) {
	// 999 * 40% = 399.6, rounds to 400
	opts := ComputePricingOptions(999)
	assert.Equal(t, int64(400), opts.Sol.DiscountAmount)
	assert.Equal(t, int64(599), opts.Sol.FinalTotal)

	// 999 * 70% = 699.3, rounds to 699
	assert.Equal(t, int64(699), opts.Spl.DiscountAmount)
	assert.Equal(t, int64(300), opts.Spl.FinalTotal)
}

func TestOptionFor(t *testing.T) {
	opts := ComputePricingOptions(1_000)

	sol, ok := opts.OptionFor(PaymentMethodSolana)
	assert.True(t, ok)
	assert.Equal(t, 40, sol.DiscountPercent)

	spl, ok := opts.OptionFor(PaymentMethodToken)
	assert.True(t, ok)
	assert.Equal(t, 70, spl.DiscountPercent)

	card, ok := opts.OptionFor(PaymentMethodCard)
	assert.True(t, ok)
	assert.Equal(t, 0, card.DiscountPercent)

	_, ok = opts.OptionFor(PaymentMethod("cash"))
	assert.False(t, ok)
}

func TestLamportsFromSol(t *testing.T) {
	assert.Equal(t, int64(1_000_000_000), LamportsFromSol(1))
	assert.Equal(t, int64(500_000_000), LamportsFromSol(0.5))
	assert.Equal(t, int64(123), LamportsFromSol(0.000000123))
	assert.Equal(t, int64(0), LamportsFromSol(0))
}
