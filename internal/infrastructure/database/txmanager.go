package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type txManager struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTxManager(db *sql.DB, l *zap.Logger) domain.TxManager {
	return &txManager{db: db, logger: l}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(q domain.Querier) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		m.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("Panic during transaction, rolling back", zap.Any("panic", p))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				m.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
			}
		} else {
			if commitErr := tx.Commit(); commitErr != nil {
				m.logger.Error("Failed to commit transaction", zap.Error(commitErr))
				err = fmt.Errorf("failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(tx)
	return err
}
