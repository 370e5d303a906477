package serviceorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// CatalogRepositories groups the lookups used to resolve order references
type CatalogRepositories struct {
	Customers catalog.CustomerRepository
	Vehicles  catalog.VehicleRepository
	Services  catalog.ServiceRepository
}

// LifecycleService drives service orders through their status lifecycle.
//
// Every state change runs in one unit of work; the raised events are published
// only after it commits. A handler failure after commit does not undo the change:
// it is reported in TransitionResult.Dispatch.
type LifecycleService struct {
	logger    *zap.Logger
	txScope   TransactionScope
	orderRepo serviceorder.OrderRepository
	catalog   CatalogRepositories
	publisher shared.EventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	logger *zap.Logger,
	txScope TransactionScope,
	orderRepo serviceorder.OrderRepository,
	catalogRepos CatalogRepositories,
	publisher shared.EventPublisher,
) *LifecycleService {
	return &LifecycleService{
		logger:    logger,
		txScope:   txScope,
		orderRepo: orderRepo,
		catalog:   catalogRepos,
		publisher: publisher,
		validate:  newValidator(),
		now:       time.Now,
	}
}

// Create opens a new order in RECEIVED status.
// Unknown customer, vehicle or service, or a vehicle owned by someone else, fail with NOT_FOUND.
func (s *LifecycleService) Create(ctx context.Context, req CreateOrderRequest) (*TransitionResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	customer, err := s.catalog.Customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, resolveNotFound(err, catalog.CustomerNotFound(req.CustomerID))
	}
	if !customer.Active {
		return nil, catalog.CustomerNotFound(req.CustomerID)
	}

	vehicle, err := s.catalog.Vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, resolveNotFound(err, catalog.VehicleNotFound(req.VehicleID))
	}
	if !vehicle.Active {
		return nil, catalog.VehicleNotFound(req.VehicleID)
	}
	if !vehicle.BelongsTo(customer.ID) {
		return nil, shared.NewDomainErrorWithCode(shared.KindNotFound, "VEHICLE_NOT_OWNED",
			fmt.Sprintf("Vehicle %s does not belong to customer %s", vehicle.ID, customer.ID))
	}

	service, err := s.catalog.Services.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, resolveNotFound(err, catalog.ServiceNotFound(req.ServiceID))
	}
	if !service.Active {
		return nil, catalog.ServiceNotFound(req.ServiceID)
	}

	order, err := serviceorder.NewOrder(customer.ID, vehicle.ID, service.ID, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.OrderRepo().Save(ctx, order)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("service order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customer.ID.String()),
	)
	return s.committed(ctx, order), nil
}

// Update applies a partial update. Nil fields are left as they are.
// A status change follows the transition table; entering AWAITING_APPROVAL computes the budget.
// Any rejected change leaves the order untouched.
func (s *LifecycleService) Update(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*TransitionResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		order, err := loadOrder(ctx, s.orderRepo, orderID)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Order: ToOrderResponse(order)}, nil
	}

	// The service price is resolved before the unit of work; an order's service never changes.
	var servicePrice *valueobject.Money
	if req.Status != nil && *req.Status == serviceorder.OrderStatusAwaitingApproval {
		price, err := s.servicePrice(ctx, orderID)
		if err != nil {
			return nil, err
		}
		servicePrice = &price
	}

	return s.transition(ctx, orderID, func(order *serviceorder.Order) error {
		if req.Description != nil {
			order.SetDescription(*req.Description)
		}
		if req.Status == nil {
			return nil
		}
		if servicePrice != nil {
			return order.SubmitBudget(*servicePrice, s.now())
		}
		return order.ChangeStatus(*req.Status)
	})
}

// AcceptBudget approves the budget, moving the order to IN_EXECUTION
func (s *LifecycleService) AcceptBudget(ctx context.Context, orderID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, orderID, (*serviceorder.Order).AcceptBudget)
}

// RejectBudget refuses the budget, cancelling the order and returning its supplies
func (s *LifecycleService) RejectBudget(ctx context.Context, orderID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, orderID, (*serviceorder.Order).RejectBudget)
}

// ExpireBudget moves an AWAITING_APPROVAL order to BUDGET_EXPIRED.
// It is the entry point for whatever decides that a budget is too old.
func (s *LifecycleService) ExpireBudget(ctx context.Context, orderID uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, orderID, (*serviceorder.Order).ExpireBudget)
}

// ExpireStaleBudgets expires every pending budget sent at least validity ago.
// Orders that changed status in the meantime are skipped. A failed side effect
// does not stop the sweep: the expiry committed and is counted.
func (s *LifecycleService) ExpireStaleBudgets(ctx context.Context, validity time.Duration, batchSize int) (int, error) {
	cutoff := s.now().Add(-validity)
	orders, err := s.orderRepo.FindBudgetsSentBefore(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale budgets: %w", err)
	}

	expired := 0
	var dispatch shared.DispatchResult
	defer func() {
		if dispatch.Failed() {
			s.logger.Warn("side effects failed during budget expiry sweep", zap.Stringer("dispatch", dispatch))
		}
	}()
	for i := range orders {
		result, err := s.ExpireBudget(ctx, orders[i].ID)
		switch {
		case err == nil:
			expired++
			dispatch = dispatch.Merge(result.Dispatch)
		case errors.Is(err, shared.ErrInvalidTransition), errors.Is(err, shared.ErrNotFound),
			errors.Is(err, shared.ErrConcurrencyConflict):
			s.logger.Debug("skipping budget expiry",
				zap.String("order_id", orders[i].ID.String()),
				zap.Error(err),
			)
		default:
			return expired, err
		}
	}
	return expired, nil
}

// GetByID returns an order with its allocations
func (s *LifecycleService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListByStatus lists orders in a status, newest first
func (s *LifecycleService) ListByStatus(ctx context.Context, status serviceorder.OrderStatus, filter serviceorder.ListFilter) ([]OrderResponse, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_STATUS", fmt.Sprintf("Unknown status %q", status))
	}
	orders, err := s.orderRepo.FindByStatus(ctx, status, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// Delete removes an order. Orders still holding supplies must be cancelled first.
func (s *LifecycleService) Delete(ctx context.Context, orderID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := loadOrder(ctx, repos.OrderRepo(), orderID)
		if err != nil {
			return err
		}
		if n := len(order.ActiveAllocations()); n > 0 {
			return shared.NewDomainErrorWithCode(shared.KindInvalidTransition, "ORDER_HOLDS_SUPPLIES",
				fmt.Sprintf("Order %s still holds %d supply allocations", orderID, n))
		}
		return repos.OrderRepo().Delete(ctx, orderID)
	})
}

func (s *LifecycleService) transition(ctx context.Context, orderID uuid.UUID, apply func(*serviceorder.Order) error) (*TransitionResult, error) {
	var order *serviceorder.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = loadOrder(ctx, repos.OrderRepo(), orderID)
		if err != nil {
			return err
		}
		from := order.Status
		if err := apply(order); err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		if from != order.Status {
			s.logger.Info("service order status changed",
				zap.String("order_id", order.ID.String()),
				zap.String("from", from.String()),
				zap.String("to", order.Status.String()),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.committed(ctx, order), nil
}

func (s *LifecycleService) servicePrice(ctx context.Context, orderID uuid.UUID) (valueobject.Money, error) {
	order, err := loadOrder(ctx, s.orderRepo, orderID)
	if err != nil {
		return valueobject.Money{}, err
	}
	service, err := s.catalog.Services.FindByID(ctx, order.ServiceID)
	if err != nil {
		return valueobject.Money{}, resolveNotFound(err, catalog.ServiceNotFound(order.ServiceID))
	}
	return service.Price, nil
}

func (s *LifecycleService) committed(ctx context.Context, order *serviceorder.Order) *TransitionResult {
	events := order.PullDomainEvents()
	return &TransitionResult{
		Order:    ToOrderResponse(order),
		Dispatch: publishCommitted(ctx, s.publisher, s.logger, events),
	}
}

// resolveNotFound replaces a generic NOT_FOUND with a specific one
func resolveNotFound(err error, notFound *shared.DomainError) error {
	if errors.Is(err, shared.ErrNotFound) {
		return notFound
	}
	return err
}
