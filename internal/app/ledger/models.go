package ledger

import "github.com/sabing2005/meal-backend/internal/domain"

// PricedItem is one line of the priced cart handed over by the cart
// pricing collaborator. Price is in minor units.
type PricedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// PricedCart is the pricing collaborator's output consumed at order
// creation. All amounts are integer minor units.
type PricedCart struct {
	Subtotal    int64        `json:"subtotal"`
	DeliveryFee int64        `json:"delivery_fee"`
	Currency    string       `json:"currency"`
	Items       []PricedItem `json:"items"`
}

type CreateOrderRequest struct {
	UserID  string     `json:"user_id"`
	CartURL string     `json:"cart_url"`
	Cart    PricedCart `json:"cart"`
}

type OrderResponse struct {
	OrderID        string                `json:"order_id"`
	UserID         string                `json:"user_id"`
	CartURL        string                `json:"cart_url"`
	Status         domain.OrderStatus    `json:"status"`
	Subtotal       int64                 `json:"subtotal"`
	DeliveryFee    int64                 `json:"delivery_fee"`
	Total          int64                 `json:"total"`
	Currency       string                `json:"currency"`
	PricingOptions domain.PricingOptions `json:"pricing_options"`
}

func mapOrderToResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		CartURL:        order.CartURL,
		Status:         domain.NormalizeOrderStatus(order.Status),
		Subtotal:       order.Subtotal,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.Total,
		Currency:       order.Currency,
		PricingOptions: order.PricingOptions,
	}
}
