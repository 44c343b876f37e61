package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/outbox"
	"github.com/sabing2005/meal-backend/internal/repository/order_repo"
	"github.com/sabing2005/meal-backend/internal/repository/outbox_repo"
	"github.com/sabing2005/meal-backend/internal/util"
)

const (
	maxOrdersPerCart       = 3
	maxActiveOrdersPerCart = 3
)

var ErrInvalidOrder = errors.New("invalid order data")

type LedgerService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	TransitionStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus, actor domain.Actor) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]*OrderResponse, error)
}

type ledgerService struct {
	txm        domain.TxManager
	orderRepo  order_repo.OrderRepository
	outboxRepo outbox_repo.OutboxRepository
	logger     *zap.Logger
}

func NewLedgerService(
	txm domain.TxManager,
	orderRepo order_repo.OrderRepository,
	outboxRepo outbox_repo.OutboxRepository,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		txm:        txm,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *ledgerService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if req.UserID == "" || req.CartURL == "" || req.Cart.Subtotal <= 0 {
		return nil, fmt.Errorf("%w: user_id, cart_url and a positive subtotal are required", ErrInvalidOrder)
	}

	gross := req.Cart.Subtotal + req.Cart.DeliveryFee
	now := time.Now()
	order := &domain.Order{
		OrderID:        util.GenerateOrderID(),
		UserID:         req.UserID,
		CartURL:        req.CartURL,
		Status:         domain.OrderStatusPending,
		Subtotal:       req.Cart.Subtotal,
		DeliveryFee:    req.Cart.DeliveryFee,
		Total:          gross,
		Currency:       currencyOrDefault(req.Cart.Currency),
		PricingOptions: domain.ComputePricingOptions(gross),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, it := range req.Cart.Items {
		order.Items = append(order.Items, domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	// The lock serializes concurrent creations for this (user, cart)
	// pair so the live counts and the insert are atomic together.
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		if err := s.orderRepo.LockUserCartTx(ctx, q, req.UserID, req.CartURL); err != nil {
			return err
		}

		total, err := s.orderRepo.CountByUserAndCartTx(ctx, q, req.UserID, req.CartURL)
		if err != nil {
			return err
		}
		if total >= maxOrdersPerCart {
			return domain.ErrUsageLimitExceeded
		}

		active, err := s.orderRepo.CountActiveByUserAndCartTx(ctx, q, req.UserID, req.CartURL)
		if err != nil {
			return err
		}
		if active >= maxActiveOrdersPerCart {
			return domain.ErrActiveOrderLimitExceeded
		}

		return s.orderRepo.CreateTx(ctx, q, order)
	})
	if err != nil {
		s.logger.Warn("Failed to create order",
			zap.String("user_id", req.UserID),
			zap.String("cart_url", req.CartURL),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", req.UserID),
		zap.Int64("total", order.Total))
	return mapOrderToResponse(order), nil
}

func (s *ledgerService) TransitionStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus, actor domain.Actor) (*OrderResponse, error) {
	if !domain.IsValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidOrderTransition, newStatus)
	}
	newStatus = domain.NormalizeOrderStatus(newStatus)

	// Cancellations and refunds are explicit staff actions.
	if (newStatus == domain.OrderStatusCancelled || newStatus == domain.OrderStatusRefunded) &&
		!actor.IsAdmin() && !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}

	var updated *domain.Order
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		order, err := s.orderRepo.GetByIDTx(ctx, q, orderID)
		if err != nil {
			return err
		}
		oldStatus := order.Status
		if !domain.CanTransitionOrder(oldStatus, newStatus) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidOrderTransition, oldStatus, newStatus)
		}

		changed, err := s.orderRepo.AdvanceStatusTx(ctx, q, orderID, newStatus, oldStatus, domain.OrderStatusDelivered)
		if err != nil {
			return err
		}
		if !changed {
			// Lost a race against a concurrent transition; the stored
			// status is no longer what we validated against.
			return fmt.Errorf("%w: order %s changed concurrently", domain.ErrInvalidOrderTransition, orderID)
		}

		order.Status = newStatus
		updated = order

		msg, err := outbox.PrepareOrderStatusChangedMessage(orderID, oldStatus, newStatus)
		if err != nil {
			return err
		}
		return s.outboxRepo.CreateMessageTx(ctx, q, msg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status transitioned",
		zap.String("order_id", orderID),
		zap.String("new_status", string(newStatus)),
		zap.String("actor_id", actor.ID))
	return mapOrderToResponse(updated), nil
}

func (s *ledgerService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	var order *domain.Order
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		var err error
		order, err = s.orderRepo.GetByIDTx(ctx, q, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mapOrderToResponse(order), nil
}

func (s *ledgerService) GetOrdersByUser(ctx context.Context, userID string) ([]*OrderResponse, error) {
	var orders []*domain.Order
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		var err error
		orders, err = s.orderRepo.ListByUserTx(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = mapOrderToResponse(order)
	}
	return responses, nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
