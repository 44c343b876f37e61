package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
	"github.com/sabing2005/meal-backend/internal/repository/order_repo"
)

type pgOrderRepository struct {
	logger *zap.Logger
}

func NewOrderRepository(l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{logger: l}
}

const orderColumns = `order_id, user_id, cart_url, status, subtotal, delivery_fee, total, currency, pricing_options, items, created_at, updated_at`

func (r *pgOrderRepository) CreateTx(ctx context.Context, q domain.Querier, order *domain.Order) error {
	pricing, err := json.Marshal(order.PricingOptions)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing options: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = q.ExecContext(ctx, query,
		order.OrderID,
		order.UserID,
		order.CartURL,
		string(domain.NormalizeOrderStatus(order.Status)),
		order.Subtotal,
		order.DeliveryFee,
		order.Total,
		order.Currency,
		string(pricing),
		string(items),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_id", order.OrderID), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	r.logger.Debug("Order inserted", zap.String("order_id", order.OrderID))
	return nil
}

func scanOrder(scan func(dest ...any) error) (*domain.Order, error) {
	order := &domain.Order{}
	var pricing, items []byte
	err := scan(
		&order.OrderID,
		&order.UserID,
		&order.CartURL,
		&order.Status,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Total,
		&order.Currency,
		&pricing,
		&items,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(pricing) > 0 {
		if err := json.Unmarshal(pricing, &order.PricingOptions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pricing options: %w", err)
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
	}
	order.Status = domain.NormalizeOrderStatus(order.Status)
	return order, nil
}

func (r *pgOrderRepository) GetByIDTx(ctx context.Context, q domain.Querier, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	row := q.QueryRowContext(ctx, query, orderID)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}

func (r *pgOrderRepository) ListByUserTx(ctx context.Context, q domain.Querier, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query orders for user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func (r *pgOrderRepository) LockUserCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) error {
	// Transaction-scoped advisory lock keyed on the pair; released at
	// commit/rollback. The two-int overload keeps the key components
	// separate without string concatenation.
	_, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, userID, cartURL)
	if err != nil {
		return fmt.Errorf("failed to take cart lock: %w", err)
	}
	return nil
}

func (r *pgOrderRepository) CountByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND cart_url = $2`
	if err := q.QueryRowContext(ctx, query, userID, cartURL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *pgOrderRepository) CountActiveByUserAndCartTx(ctx context.Context, q domain.Querier, userID, cartURL string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND cart_url = $2 AND status = ANY($3)`
	active := pq.StringArray{string(domain.OrderStatusPlaced), string(domain.OrderStatusDelivered)}
	if err := q.QueryRowContext(ctx, query, userID, cartURL, active).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

func (r *pgOrderRepository) AdvanceStatusTx(ctx context.Context, q domain.Querier, orderID string, newStatus domain.OrderStatus, allowedFrom ...domain.OrderStatus) (bool, error) {
	from := make(pq.StringArray, 0, len(allowedFrom))
	for _, s := range allowedFrom {
		from = append(from, string(s))
	}
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE order_id = $1 AND status = ANY($4)`
	res, err := q.ExecContext(ctx, query, orderID, string(domain.NormalizeOrderStatus(newStatus)), time.Now(), from)
	if err != nil {
		r.logger.Error("Failed to advance order status",
			zap.String("order_id", orderID),
			zap.String("new_status", string(newStatus)),
			zap.Error(err))
		return false, fmt.Errorf("failed to advance order %s: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}
