package serviceorder

import (
	"context"

	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the order and stock repositories.
// All repository operations inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back and that error is returned.
	// A failed commit is returned as a PERSISTENCE error.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories sharing one transaction.
//
// Aggregate boundaries:
//   - OrderRepo persists the Order aggregate together with its SupplyAllocations.
//   - StockRepo persists StockItems; quantity changes go through the stock ledger only.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() serviceorder.OrderRepository
	// StockRepo returns the stock item repository scoped to the current transaction
	StockRepo() stock.StockItemRepository
}
