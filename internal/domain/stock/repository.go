package stock

import (
	"context"

	"github.com/google/uuid"
)

// StockItemRepository defines the interface for stock item persistence
type StockItemRepository interface {
	// FindByID finds a stock item by ID, active or not
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindByIDs finds the stock items with the given IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StockItem, error)

	// FindBelowMinimum lists active items whose available quantity is at or below minimum
	FindBelowMinimum(ctx context.Context) ([]StockItem, error)

	// Save creates a stock item or overwrites it unconditionally
	Save(ctx context.Context, item *StockItem) error

	// SaveWithLock updates the item only if the stored version is item.Version-1.
	// A version mismatch yields a CONCURRENCY_CONFLICT error.
	SaveWithLock(ctx context.Context, item *StockItem) error
}
