package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds the optimistic-lock retries of a single debit or credit
const DefaultMaxRetries = 3

// Ledger is the only writer of StockItem.QuantityAvailable.
//
// Every mutation is persisted with a version-checked update: a writer that lost the
// race, in this process or another, sees a version conflict and retries against the
// fresh row. The keyed mutex only covers the read-modify-write inside this process and
// is released before the caller's unit of work commits, so the version check is what
// keeps quantities consistent. The repository is passed per call so the mutation joins
// the caller's unit of work.
//
// Events raised by the item (debited, credited, below minimum) stay on the returned
// item; callers publish them after their unit of work commits.
type Ledger struct {
	logger     *zap.Logger
	maxRetries int
	locks      *itemLocks
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithMaxRetries sets how many times a version conflict is retried
func WithMaxRetries(n int) LedgerOption {
	return func(l *Ledger) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

// NewLedger creates a new stock ledger
func NewLedger(logger *zap.Logger, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		logger:     logger,
		maxRetries: DefaultMaxRetries,
		locks:      newItemLocks(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debit decreases the available quantity of a stock item.
// It fails with INSUFFICIENT_STOCK if the result would be negative, and inactive
// items are NOT_FOUND.
func (l *Ledger) Debit(ctx context.Context, repo stock.StockItemRepository, id uuid.UUID, quantity int) (*stock.StockItem, error) {
	return l.mutate(ctx, repo, id, "debit", func(item *stock.StockItem) error {
		if !item.Active {
			return stock.NotFoundError(id)
		}
		return item.Debit(quantity)
	})
}

// Credit increases the available quantity of a stock item.
// Retired items still take their supplies back.
func (l *Ledger) Credit(ctx context.Context, repo stock.StockItemRepository, id uuid.UUID, quantity int) (*stock.StockItem, error) {
	return l.mutate(ctx, repo, id, "credit", func(item *stock.StockItem) error {
		return item.Credit(quantity)
	})
}

func (l *Ledger) mutate(
	ctx context.Context,
	repo stock.StockItemRepository,
	id uuid.UUID,
	op string,
	apply func(item *stock.StockItem) error,
) (*stock.StockItem, error) {
	unlock := l.locks.lock(id)
	defer unlock()

	for attempt := 0; ; attempt++ {
		item, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, stock.NotFoundError(id)
			}
			return nil, err
		}

		if err := apply(item); err != nil {
			return nil, err
		}

		err = repo.SaveWithLock(ctx, item)
		if err == nil {
			l.logger.Debug("stock ledger entry",
				zap.String("operation", op),
				zap.String("stock_item_id", id.String()),
				zap.Int("quantity_available", item.QuantityAvailable),
				zap.Int("attempt", attempt+1),
			)
			return item, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		if attempt >= l.maxRetries {
			l.logger.Warn("stock ledger gave up after version conflicts",
				zap.String("operation", op),
				zap.String("stock_item_id", id.String()),
				zap.Int("attempts", attempt+1),
			)
			return nil, shared.NewDomainError(shared.KindConcurrencyConflict,
				fmt.Sprintf("Stock item %s kept changing during %s", id, op)).WithCause(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// itemLocks is a keyed mutex; entries are dropped when no goroutine holds or waits for them.
type itemLocks struct {
	mu    sync.Mutex
	items map[uuid.UUID]*itemLock
}

type itemLock struct {
	mu   sync.Mutex
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{items: make(map[uuid.UUID]*itemLock)}
}

func (l *itemLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.items[id]
	if !ok {
		entry = &itemLock{}
		l.items[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.items, id)
		}
		l.mu.Unlock()
	}
}
