package tickets

import (
	"context"
	"sync"
	"time"

	"github.com/sabing2005/meal-backend/internal/domain"
)

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

func (r *fakeOrderRepo) add(order *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.OrderID] = &cp
}

func (r *fakeOrderRepo) status(orderID string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID].Status
}

func (r *fakeOrderRepo) CreateTx(ctx context.Context, q domain.Querier, order *domain.Order) error {
	r.add(order)
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
	return nil, nil
}

func (r *fakeOrderRepo) LockUserCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) error {
	return nil
}

func (r *fakeOrderRepo) CountByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	return 0, nil
}

func (r *fakeOrderRepo) CountActiveByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	return 0, nil
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

type fakeTicketRepo struct {
	mu      sync.Mutex
	byOrder map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byOrder: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) byTicketID(ticketID string) *domain.Ticket {
	for _, t := range r.byOrder {
		if t.TicketID == ticketID {
			return t
		}
	}
	return nil
}

func (r *fakeTicketRepo) CreateIfAbsentTx(ctx context.Context, q domain.Querier, ticket *domain.Ticket) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byOrder[ticket.OrderID]; ok {
		return false, nil
	}
	cp := *ticket
	r.byOrder[ticket.OrderID] = &cp
	return true, nil
}

func (r *fakeTicketRepo) GetByTicketIDTx(ctx context.Context, q domain.Querier, ticketID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byTicketID(ticketID); t != nil {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTicketNotFound
}

func (r *fakeTicketRepo) GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) ClaimTx(ctx context.Context, q domain.Querier, ticketID, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.byTicketID(ticketID)
	if t == nil || t.ClaimedBy != nil || t.Status != domain.TicketStatusOpen {
		return false, nil
	}
	id := staffID
	t.ClaimedBy = &id
	return true, nil
}

func (r *fakeTicketRepo) AssignTx(ctx context.Context, q domain.Querier, ticketID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byTicketID(ticketID); t != nil {
		id := staffID
		t.ClaimedBy = &id
	}
	return nil
}

func (r *fakeTicketRepo) UpdateStatusTx(ctx context.Context, q domain.Querier, ticketID string, newStatus domain.TicketStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.byTicketID(ticketID)
	if t == nil || t.Status != domain.TicketStatusOpen {
		return false, nil
	}
	t.Status = newStatus
	return true, nil
}

func (r *fakeTicketRepo) AddNoteTx(ctx context.Context, q domain.Querier, ticketID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byTicketID(ticketID); t != nil {
		t.AdminNotes = append(t.AdminNotes, note)
	}
	return nil
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

func (r *fakeOutboxRepo) lastOnTopic(topic string) *domain.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Topic == topic {
			return r.messages[i]
		}
	}
	return nil
}
