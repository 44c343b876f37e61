package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/app/chainverify"
	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/outbox"
	"github.com/sabing2005/meal-backend/internal/repository/inbox_repo"
	"github.com/sabing2005/meal-backend/internal/repository/order_repo"
	"github.com/sabing2005/meal-backend/internal/repository/outbox_repo"
	"github.com/sabing2005/meal-backend/internal/repository/payment_repo"
	"github.com/sabing2005/meal-backend/internal/repository/ticket_repo"
	"github.com/sabing2005/meal-backend/internal/util"
)

var ErrInvalidPayment = errors.New("invalid payment data")

// ChainVerifier settles an on-chain payment claim against the cluster.
type ChainVerifier interface {
	Verify(ctx context.Context, req chainverify.Request) (*chainverify.Outcome, error)
}

// ReconcilerService drives every payment rail toward a terminal payment
// status and funnels all success transitions through one chokepoint.
type ReconcilerService interface {
	InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*PaymentResponse, error)
	ConfirmChainPayment(ctx context.Context, req *ConfirmChainPaymentRequest) (*PaymentResponse, error)
	HandleProcessorEvent(ctx context.Context, event *ProcessorEvent) error
	ProcessVerificationTask(ctx context.Context, task *domain.VerificationTask) error
	GetPaymentByOrder(ctx context.Context, orderID string) (*PaymentResponse, error)
}

type reconcilerService struct {
	txm         domain.TxManager
	orderRepo   order_repo.OrderRepository
	paymentRepo payment_repo.PaymentRepository
	ticketRepo  ticket_repo.TicketRepository
	outboxRepo  outbox_repo.OutboxRepository
	inboxRepo   inbox_repo.InboxRepository
	verifier    ChainVerifier
	recipient   string
	logger      *zap.Logger
}

func NewReconcilerService(
	txm domain.TxManager,
	orderRepo order_repo.OrderRepository,
	paymentRepo payment_repo.PaymentRepository,
	ticketRepo ticket_repo.TicketRepository,
	outboxRepo outbox_repo.OutboxRepository,
	inboxRepo inbox_repo.InboxRepository,
	verifier ChainVerifier,
	recipient string,
	logger *zap.Logger,
) ReconcilerService {
	return &reconcilerService{
		txm:         txm,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		ticketRepo:  ticketRepo,
		outboxRepo:  outboxRepo,
		inboxRepo:   inboxRepo,
		verifier:    verifier,
		recipient:   recipient,
		logger:      logger,
	}
}

func (s *reconcilerService) InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*PaymentResponse, error) {
	if req.OrderID == "" || req.UserID == "" {
		return nil, ErrInvalidPayment
	}
	if !domain.IsValidPaymentMethod(req.Method) {
		return nil, ErrInvalidPayment
	}
	if req.Method == domain.PaymentMethodSolana && req.AmountSol <= 0 {
		return nil, ErrInvalidPayment
	}

	var resp *PaymentResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		order, err := s.orderRepo.GetByIDTx(ctx, q, req.OrderID)
		if err != nil {
			return err
		}
		if order.UserID != req.UserID {
			return domain.ErrForbidden
		}

		option, ok := order.PricingOptions.OptionFor(req.Method)
		if !ok {
			return ErrInvalidPayment
		}

		now := time.Now()
		payment := &domain.Payment{
			ID:        util.GenerateUUID(),
			OrderID:   order.OrderID,
			UserID:    order.UserID,
			Method:    req.Method,
			Status:    domain.PaymentStatusPending,
			Amount:    option.FinalTotal,
			Currency:  domain.CurrencyFor(req.Method),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Method == domain.PaymentMethodSolana {
			payment.Amount = domain.LamportsFromSol(req.AmountSol)
			payment.Reference = util.GenerateUUID()
			payment.Recipient = s.recipient
		}

		stored, err := s.paymentRepo.UpsertPendingTx(ctx, q, payment)
		if err != nil {
			return err
		}

		// The simulated token rail has no external settlement step, so
		// the attempt resolves in the same transaction it was created in.
		if stored.Method == domain.PaymentMethodToken {
			first, err := s.paymentRepo.MarkSucceededTx(ctx, q, stored.ID, stored.Amount)
			if err != nil {
				return err
			}
			if first {
				if err := s.applySuccessTx(ctx, q, stored); err != nil {
					return err
				}
			}
			stored.Status = domain.PaymentStatusSuccess
		}

		resp = mapPaymentToResponse(stored)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment initiated",
		zap.String("payment_id", resp.ID),
		zap.String("order_id", resp.OrderID),
		zap.String("method", string(resp.Method)),
		zap.Int64("amount", resp.Amount))
	return resp, nil
}

func (s *reconcilerService) ConfirmChainPayment(ctx context.Context, req *ConfirmChainPaymentRequest) (*PaymentResponse, error) {
	if req.PaymentID == "" || req.TxSignature == "" {
		return nil, ErrInvalidPayment
	}

	var resp *PaymentResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		payment, err := s.paymentRepo.GetByIDTx(ctx, q, req.PaymentID)
		if err != nil {
			return err
		}
		if payment.Method != domain.PaymentMethodSolana {
			return domain.ErrPaymentMethodMismatch
		}

		moved, err := s.paymentRepo.MarkProcessingTx(ctx, q, payment.ID, req.TxSignature)
		if err != nil {
			return err
		}
		if !moved {
			resp = mapPaymentToResponse(payment)
			return nil
		}
		payment.Status = domain.PaymentStatusProcessing
		payment.TxSignature = req.TxSignature

		msg, err := outbox.PrepareVerificationTaskMessage(payment.ID, payment.OrderID, req.TxSignature)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}

		resp = mapPaymentToResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Chain payment confirmation queued",
		zap.String("payment_id", resp.ID),
		zap.String("tx_signature", resp.TxSignature))
	return resp, nil
}

func (s *reconcilerService) HandleProcessorEvent(ctx context.Context, event *ProcessorEvent) error {
	if event.ID == "" {
		return ErrInvalidPayment
	}

	return s.txm.WithinTx(ctx, func(q domain.Querier) error {
		err := s.inboxRepo.CreateMessageTx(ctx, q, &domain.InboxMessage{
			ID:         event.ID,
			EventType:  event.Type,
			Payload:    event.Raw,
			ReceivedAt: time.Now(),
		})
		if errors.Is(err, domain.ErrEventAlreadyProcessed) {
			s.logger.Info("Skipping already processed processor event",
				zap.String("event_id", event.ID))
			return nil
		}
		if err != nil {
			return err
		}

		switch event.Type {
		case EventPaymentSucceeded:
			return s.handleIntentSucceeded(ctx, q, event)
		case EventPaymentFailed:
			return s.handleIntentFailed(ctx, q, event)
		default:
			s.logger.Info("Ignoring unhandled processor event type",
				zap.String("event_id", event.ID),
				zap.String("type", event.Type))
			return nil
		}
	})
}

func (s *reconcilerService) handleIntentSucceeded(ctx context.Context, q domain.Querier, event *ProcessorEvent) error {
	intent := &event.Data.Object
	payment, err := s.lookupIntentPayment(ctx, q, intent)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.Warn("Processor intent matches no payment, acknowledging",
				zap.String("event_id", event.ID),
				zap.String("intent_id", intent.ID))
			return nil
		}
		return err
	}

	first, err := s.paymentRepo.MarkSucceededByOrderTx(ctx, q, payment.OrderID, intent.ID)
	if err != nil {
		return err
	}
	if !first {
		s.logger.Info("Payment already settled, ignoring succeeded event",
			zap.String("order_id", payment.OrderID),
			zap.String("event_id", event.ID))
		return nil
	}
	return s.applySuccessTx(ctx, q, payment)
}

func (s *reconcilerService) handleIntentFailed(ctx context.Context, q domain.Querier, event *ProcessorEvent) error {
	intent := &event.Data.Object
	payment, err := s.lookupIntentPayment(ctx, q, intent)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.Warn("Processor intent matches no payment, acknowledging",
				zap.String("event_id", event.ID),
				zap.String("intent_id", intent.ID))
			return nil
		}
		return err
	}

	const reason = "Card payment failed at the processor."
	marked, err := s.paymentRepo.MarkFailedByOrderTx(ctx, q, payment.OrderID, intent.ID, reason)
	if err != nil {
		return err
	}
	if !marked {
		return nil
	}

	msg, err := outbox.PreparePaymentResolvedMessage(payment.OrderID, payment.Method, domain.PaymentStatusFailed, reason)
	if err != nil {
		return err
	}
	return s.outboxRepo.CreateMessageTx(ctx, q, msg)
}

// lookupIntentPayment resolves the payment a webhook intent refers to,
// preferring the order id carried in intent metadata and falling back to
// the intent id recorded at initiation.
func (s *reconcilerService) lookupIntentPayment(ctx context.Context, q domain.Querier, intent *PaymentIntent) (*domain.Payment, error) {
	if orderID := intent.Metadata["order_id"]; orderID != "" {
		return s.paymentRepo.GetByOrderIDTx(ctx, q, orderID)
	}
	return s.paymentRepo.GetByIntentIDTx(ctx, q, intent.ID)
}

func (s *reconcilerService) ProcessVerificationTask(ctx context.Context, task *domain.VerificationTask) error {
	var payment *domain.Payment
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		p, err := s.paymentRepo.GetByIDTx(ctx, q, task.PaymentID)
		if err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.Warn("Verification task references unknown payment",
				zap.String("payment_id", task.PaymentID))
			return nil
		}
		return err
	}
	if payment.Status == domain.PaymentStatusSuccess {
		return nil
	}

	signature := task.TxSignature
	if signature == "" {
		signature = payment.TxSignature
	}

	outcome, err := s.verifier.Verify(ctx, chainverify.Request{
		Signature:        signature,
		Reference:        payment.Reference,
		Recipient:        payment.Recipient,
		ExpectedLamports: payment.Amount,
	})
	if err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(q domain.Querier) error {
		if outcome.Verified {
			first, err := s.paymentRepo.MarkSucceededTx(ctx, q, payment.ID, outcome.ObservedLamports)
			if err != nil || !first {
				return err
			}
			return s.applySuccessTx(ctx, q, payment)
		}

		marked, err := s.paymentRepo.MarkFailedTx(ctx, q, payment.ID, outcome.FailureReason)
		if err != nil || !marked {
			return err
		}
		s.logger.Info("On-chain payment verification failed",
			zap.String("payment_id", payment.ID),
			zap.String("reason", outcome.FailureReason))

		msg, err := outbox.PreparePaymentResolvedMessage(payment.OrderID, payment.Method, domain.PaymentStatusFailed, outcome.FailureReason)
		if err != nil {
			return err
		}
		return s.outboxRepo.CreateMessageTx(ctx, q, msg)
	})
}

func (s *reconcilerService) GetPaymentByOrder(ctx context.Context, orderID string) (*PaymentResponse, error) {
	var resp *PaymentResponse
	err := s.txm.WithinTx(ctx, func(q domain.Querier) error {
		payment, err := s.paymentRepo.GetByOrderIDTx(ctx, q, orderID)
		if err != nil {
			return err
		}
		resp = mapPaymentToResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// applySuccessTx runs inside the transaction that flipped a payment to
// success for the first time. Every rail ends up here, so the order
// advance and the ticket insert are idempotent on their own: a replayed
// signal changes nothing and emits nothing.
func (s *reconcilerService) applySuccessTx(ctx context.Context, q domain.Querier, payment *domain.Payment) error {
	order, err := s.orderRepo.GetByIDTx(ctx, q, payment.OrderID)
	if err != nil {
		return err
	}

	advanced, err := s.orderRepo.AdvanceStatusTx(ctx, q, order.OrderID, domain.OrderStatusPlaced, domain.OrderStatusPending)
	if err != nil {
		return err
	}
	if advanced {
		msg, err := outbox.PrepareOrderStatusChangedMessage(order.OrderID, order.Status, domain.OrderStatusPlaced)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
	}

	now := time.Now()
	ticket := &domain.Ticket{
		TicketID:  util.GenerateTicketID(),
		OrderID:   order.OrderID,
		UserID:    order.UserID,
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityMedium,
		Category:  "ORDER",
		Subject:   fmt.Sprintf("Fulfilment for order %s", order.OrderID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.ticketRepo.CreateIfAbsentTx(ctx, q, ticket)
	if err != nil {
		return err
	}
	if created {
		msg, err := outbox.PrepareTicketCreatedMessage(ticket.TicketID, order.OrderID)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}
	}

	msg, err := outbox.PreparePaymentResolvedMessage(order.OrderID, payment.Method, domain.PaymentStatusSuccess, "")
	if err != nil {
		return err
	}
	return s.outboxRepo.CreateMessageTx(ctx, q, msg)
}
