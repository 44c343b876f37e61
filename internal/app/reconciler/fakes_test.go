package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/sabing2005/meal-backend/internal/app/chainverify"
	"github.com/sabing2005/meal-backend/internal/domain"
)

// fakeTxManager serializes transactions so concurrency tests exercise
// the same interleavings the database would allow.
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

type fakePaymentRepo struct {
	mu      sync.Mutex
	byOrder map[string]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byOrder: make(map[string]*domain.Payment)}
}

func (r *fakePaymentRepo) get(orderID string) *domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.byOrder[orderID]
	return &cp
}

func (r *fakePaymentRepo) UpsertPendingTx(ctx context.Context, q domain.Querier, payment *domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byOrder[payment.OrderID]
	if ok {
		if existing.Status == domain.PaymentStatusSuccess {
			return nil, domain.ErrPaymentAlreadyCompleted
		}
		existing.Method = payment.Method
		existing.Status = domain.PaymentStatusPending
		existing.Amount = payment.Amount
		existing.Currency = payment.Currency
		existing.FailureReason = ""
		existing.Recipient = payment.Recipient
		existing.TxSignature = payment.TxSignature
		existing.Reference = payment.Reference
		existing.StripePaymentIntentID = payment.StripePaymentIntentID
		existing.UpdatedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	cp := *payment
	cp.Status = domain.PaymentStatusPending
	r.byOrder[payment.OrderID] = &cp
	out := cp
	return &out, nil
}

func (r *fakePaymentRepo) find(match func(*domain.Payment) bool) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byOrder {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *fakePaymentRepo) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.ID == id })
}

func (r *fakePaymentRepo) GetByOrderIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.OrderID == orderID })
}

func (r *fakePaymentRepo) GetByIntentIDTx(ctx context.Context, q domain.Querier, intentID string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.StripePaymentIntentID == intentID })
}

func (r *fakePaymentRepo) update(match func(*domain.Payment) bool, apply func(*domain.Payment)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byOrder {
		if match(p) && p.Status != domain.PaymentStatusSuccess {
			apply(p)
			p.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) MarkProcessingTx(ctx context.Context, q domain.Querier, id, txSignature string) (bool, error) {
	return r.update(
		func(p *domain.Payment) bool { return p.ID == id },
		func(p *domain.Payment) {
			p.Status = domain.PaymentStatusProcessing
			p.TxSignature = txSignature
		})
}

func (r *fakePaymentRepo) MarkSucceededTx(ctx context.Context, q domain.Querier, id string, resolvedAmount int64) (bool, error) {
	return r.update(
		func(p *domain.Payment) bool { return p.ID == id },
		func(p *domain.Payment) {
			p.Status = domain.PaymentStatusSuccess
			p.Amount = resolvedAmount
			p.FailureReason = ""
		})
}

func (r *fakePaymentRepo) MarkSucceededByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID string) (bool, error) {
	return r.update(
		func(p *domain.Payment) bool { return p.OrderID == orderID },
		func(p *domain.Payment) {
			p.Status = domain.PaymentStatusSuccess
			p.StripePaymentIntentID = intentID
			p.FailureReason = ""
		})
}

func (r *fakePaymentRepo) MarkFailedTx(ctx context.Context, q domain.Querier, id, reason string) (bool, error) {
	return r.update(
		func(p *domain.Payment) bool { return p.ID == id },
		func(p *domain.Payment) {
			p.Status = domain.PaymentStatusFailed
			p.FailureReason = reason
		})
}

func (r *fakePaymentRepo) MarkFailedByOrderTx(ctx context.Context, q domain.Querier, orderID, intentID, reason string) (bool, error) {
	return r.update(
		func(p *domain.Payment) bool { return p.OrderID == orderID },
		func(p *domain.Payment) {
			p.Status = domain.PaymentStatusFailed
			p.StripePaymentIntentID = intentID
			p.FailureReason = reason
		})
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	byOrder map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byOrder: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOrder)
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
	for _, t := range r.byOrder {
		if t.TicketID == ticketID {
			cp := *t
			return &cp, nil
		}
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
	for _, t := range r.byOrder {
		if t.TicketID == ticketID {
			if t.ClaimedBy != nil || t.Status != domain.TicketStatusOpen {
				return false, nil
			}
			id := staffID
			t.ClaimedBy = &id
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) AssignTx(ctx context.Context, q domain.Querier, ticketID, staffID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byOrder {
		if t.TicketID == ticketID {
			id := staffID
			t.ClaimedBy = &id
		}
	}
	return nil
}

func (r *fakeTicketRepo) UpdateStatusTx(ctx context.Context, q domain.Querier, ticketID string, newStatus domain.TicketStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byOrder {
		if t.TicketID == ticketID && t.Status == domain.TicketStatusOpen {
			t.Status = newStatus
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) AddNoteTx(ctx context.Context, q domain.Querier, ticketID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byOrder {
		if t.TicketID == ticketID {
			t.AdminNotes = append(t.AdminNotes, note)
		}
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

type fakeInboxRepo struct {
	mu   sync.Mutex
	seen map[string]bool
	last *domain.InboxMessage
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{seen: make(map[string]bool)}
}

func (r *fakeInboxRepo) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.InboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[msg.ID] {
		return domain.ErrEventAlreadyProcessed
	}
	r.seen[msg.ID] = true
	r.last = msg
	return nil
}

type fakeVerifier struct {
	outcome *chainverify.Outcome
	err     error
}

func (v *fakeVerifier) Verify(ctx context.Context, req chainverify.Request) (*chainverify.Outcome, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.outcome, nil
}
