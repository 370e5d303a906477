package persistence

import (
	"context"

	appserviceorder "github.com/oficina/backend/internal/application/serviceorder"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, logger *zap.Logger) *GormTransactionScope {
	return &GormTransactionScope{db: db, logger: logger}
}

// Execute runs fn inside one transaction. Errors returned by fn roll the
// transaction back and are returned unchanged; driver errors on begin or
// commit are wrapped as PERSISTENCE errors.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appserviceorder.TransactionalRepositories) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&gormTransactionalRepositories{tx: tx})
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		s.logger.Debug("transaction rolled back", zap.Error(fnErr))
		return fnErr
	}

	s.logger.Error("transaction failed", zap.Error(err))
	return shared.NewPersistenceError(err)
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) OrderRepo() serviceorder.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockRepo() stock.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

var _ appserviceorder.TransactionScope = (*GormTransactionScope)(nil)
