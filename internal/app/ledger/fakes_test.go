package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/sabing2005/meal-backend/internal/domain"
)

// fakeTxManager serializes transactions the way the advisory lock does
// in Postgres, so concurrency tests exercise real interleavings.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nil)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) CreateTx(ctx context.Context, q domain.Querier, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.OrderID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	cp.Status = domain.NormalizeOrderStatus(cp.Status)
	return &cp, nil
}

func (r *fakeOrderRepo) ListByUserTx(ctx context.Context, q domain.Querier, userID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) LockUserCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) error {
	return nil
}

func (r *fakeOrderRepo) CountByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, order := range r.orders {
		if order.UserID == userID && order.CartURL == cartURL {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) CountActiveByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, order := range r.orders {
		if order.UserID == userID && order.CartURL == cartURL &&
			(order.Status == domain.OrderStatusPlaced || order.Status == domain.OrderStatusDelivered) {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) AdvanceStatusTx(ctx context.Context, q domain.Querier, orderID string, newStatus domain.OrderStatus, allowedFrom ...domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, from := range allowedFrom {
		if order.Status == from {
			order.Status = domain.NormalizeOrderStatus(newStatus)
			order.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

type fakeOutboxRepo struct {
	mu       sync.Mutex
	messages []*domain.OutboxMessage
}

func (r *fakeOutboxRepo) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeOutboxRepo) GetUnsentMessages(ctx context.Context) ([]*domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.OutboxMessage(nil), r.messages...), nil
}

func (r *fakeOutboxRepo) MarkMessageSent(ctx context.Context, id string) error {
	return nil
}

func (r *fakeOutboxRepo) topicCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, msg := range r.messages {
		if msg.Topic == topic {
			count++
		}
	}
	return count
}
