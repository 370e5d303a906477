package serviceorder

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	stockapp "github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// AllocationService assigns stock items to orders and returns them to stock.
// Stock debits or credits and the allocation records commit in the same unit of work.
type AllocationService struct {
	logger    *zap.Logger
	txScope   TransactionScope
	ledger    *stockapp.Ledger
	publisher shared.EventPublisher
	validate  *validator.Validate
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	logger *zap.Logger,
	txScope TransactionScope,
	ledger *stockapp.Ledger,
	publisher shared.EventPublisher,
) *AllocationService {
	return &AllocationService{
		logger:    logger,
		txScope:   txScope,
		ledger:    ledger,
		publisher: publisher,
		validate:  newValidator(),
	}
}

// Allocate debits the requested stock items and records one allocation per item.
//
// The whole batch is validated before any debit: an unknown or inactive stock item
// fails with NOT_FOUND, an item already allocated to the order (or repeated in the
// batch) with ALREADY_ALLOCATED, and a quantity above the available stock with
// INSUFFICIENT_STOCK. Nothing is debited or recorded unless every line passes and
// the unit of work commits.
func (s *AllocationService) Allocate(ctx context.Context, orderID uuid.UUID, req AllocateSuppliesRequest) (*TransitionResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	var (
		order  *serviceorder.Order
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil

		var err error
		order, err = loadOrder(ctx, repos.OrderRepo(), orderID)
		if err != nil {
			return err
		}
		if err := order.CanAllocate(); err != nil {
			return err
		}
		if err := s.checkSupplies(ctx, repos.StockRepo(), order, req.Supplies); err != nil {
			return err
		}

		for _, line := range req.Supplies {
			item, err := s.ledger.Debit(ctx, repos.StockRepo(), line.StockItemID, line.Quantity)
			if err != nil {
				return err
			}
			if _, err := order.AddAllocation(line.StockItemID, line.Quantity, item.UnitPrice); err != nil {
				return err
			}
			events = append(events, item.PullDomainEvents()...)
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplies allocated",
		zap.String("order_id", orderID.String()),
		zap.Int("lines", len(req.Supplies)),
	)

	events = append(order.PullDomainEvents(), events...)
	return &TransitionResult{
		Order:    ToOrderResponse(order),
		Dispatch: publishCommitted(ctx, s.publisher, s.logger, events),
	}, nil
}

// Deallocate returns one allocated stock item to stock and deactivates its allocation.
// Changing an allocated quantity is a Deallocate followed by a new Allocate.
func (s *AllocationService) Deallocate(ctx context.Context, orderID, stockItemID uuid.UUID) (*TransitionResult, error) {
	var (
		order  *serviceorder.Order
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = loadOrder(ctx, repos.OrderRepo(), orderID)
		if err != nil {
			return err
		}
		allocation, err := order.RemoveAllocation(stockItemID)
		if err != nil {
			return err
		}
		item, err := s.ledger.Credit(ctx, repos.StockRepo(), allocation.StockItemID, allocation.Quantity)
		if err != nil {
			return err
		}
		events = item.PullDomainEvents()
		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return &TransitionResult{
		Order:    ToOrderResponse(order),
		Dispatch: publishCommitted(ctx, s.publisher, s.logger, events),
	}, nil
}

// ReturnToStock credits each line back to stock, regardless of any allocation state.
// An empty list is a no-op. An unknown stock item fails the whole call with NOT_FOUND.
func (s *AllocationService) ReturnToStock(ctx context.Context, lines []serviceorder.SupplyLine) (shared.DispatchResult, error) {
	if len(lines) == 0 {
		return shared.DispatchResult{}, nil
	}

	var events []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil
		for _, line := range lines {
			item, err := s.ledger.Credit(ctx, repos.StockRepo(), line.StockItemID, line.Quantity)
			if err != nil {
				return err
			}
			events = append(events, item.PullDomainEvents()...)
		}
		return nil
	})
	if err != nil {
		return shared.DispatchResult{}, err
	}

	return publishCommitted(ctx, s.publisher, s.logger, events), nil
}

// ReleaseOrderSupplies returns every active allocation of the order to stock and
// deactivates it in the same unit of work. Running it again for the same order
// credits nothing, so a redelivered cancellation cannot return stock twice.
func (s *AllocationService) ReleaseOrderSupplies(ctx context.Context, orderID uuid.UUID) (*ReleaseResult, error) {
	var (
		released []serviceorder.SupplyAllocation
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil

		order, err := loadOrder(ctx, repos.OrderRepo(), orderID)
		if err != nil {
			return err
		}
		released = order.ReleaseAllocations()
		if len(released) == 0 {
			return nil
		}
		for _, a := range released {
			item, err := s.ledger.Credit(ctx, repos.StockRepo(), a.StockItemID, a.Quantity)
			if err != nil {
				return err
			}
			events = append(events, item.PullDomainEvents()...)
		}
		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if len(released) > 0 {
		s.logger.Info("order supplies returned to stock",
			zap.String("order_id", orderID.String()),
			zap.Int("allocations", len(released)),
		)
	}

	return &ReleaseResult{
		OrderID:  orderID,
		Released: serviceorder.Lines(released),
		Dispatch: publishCommitted(ctx, s.publisher, s.logger, events),
	}, nil
}

// checkSupplies validates a whole allocation batch without mutating anything.
// The stock items are loaded in one query.
func (s *AllocationService) checkSupplies(ctx context.Context, repo stock.StockItemRepository, order *serviceorder.Order, supplies []SupplyInput) error {
	ids := make([]uuid.UUID, len(supplies))
	for i, line := range supplies {
		ids[i] = line.StockItemID
	}
	found, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	items := make(map[uuid.UUID]*stock.StockItem, len(found))
	for i := range found {
		items[found[i].ID] = &found[i]
	}

	seen := make(map[uuid.UUID]struct{}, len(supplies))
	for _, line := range supplies {
		item, ok := items[line.StockItemID]
		if !ok || !item.Active {
			return stock.NotFoundError(line.StockItemID)
		}

		if _, dup := seen[line.StockItemID]; dup || order.HasActiveAllocation(line.StockItemID) {
			return serviceorder.AlreadyAllocatedError(order.ID, line.StockItemID)
		}
		seen[line.StockItemID] = struct{}{}

		if !item.CanFulfill(line.Quantity) {
			return stock.InsufficientStockError(item.ID, line.Quantity, item.QuantityAvailable)
		}
	}
	return nil
}

func loadOrder(ctx context.Context, repo serviceorder.OrderRepository, orderID uuid.UUID) (*serviceorder.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, resolveNotFound(err, serviceorder.NotFoundError(orderID))
	}
	return order, nil
}
