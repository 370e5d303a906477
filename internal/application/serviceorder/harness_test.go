package serviceorder_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	appserviceorder "github.com/oficina/backend/internal/application/serviceorder"
	stockapp "github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/oficina/backend/internal/domain/stock"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/oficina/backend/internal/infrastructure/event"
	"github.com/oficina/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingHandler receives every event and remembers its type
type recordingHandler struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (h *recordingHandler) EventTypes() []string { return nil }

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	return nil
}

func (h *recordingHandler) count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func (h *recordingHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

// failingHandler fails every event of its types
type failingHandler struct {
	types []string
}

func (h *failingHandler) EventTypes() []string { return h.types }

func (h *failingHandler) Handle(context.Context, shared.DomainEvent) error {
	return errors.New("mail server unavailable")
}

type harness struct {
	lifecycle  *appserviceorder.LifecycleService
	allocation *appserviceorder.AllocationService
	bus        *event.InMemoryEventBus
	recorder   *recordingHandler
	stockRepo  *persistence.GormStockItemRepository
	orderRepo  *persistence.GormOrderRepository
	customers  *persistence.GormCustomerRepository
	warnings   *observer.ObservedLogs

	customer *catalog.Customer
	vehicle  *catalog.Vehicle
	service  *catalog.Service
}

// newHarness wires the services over an in-memory SQLite database and the real event bus.
// The supply-return handlers are registered before the recorder.
func newHarness(t *testing.T, servicePrice string) *harness {
	t.Helper()
	ctx := context.Background()
	core, warnings := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	customers := persistence.NewGormCustomerRepository(db.DB)
	vehicles := persistence.NewGormVehicleRepository(db.DB)
	services := persistence.NewGormServiceRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	stockRepo := persistence.NewGormStockItemRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, logger)

	bus := event.NewInMemoryEventBus(logger)
	ledger := stockapp.NewLedger(logger)
	allocation := appserviceorder.NewAllocationService(logger, txScope, ledger, bus)
	lifecycle := appserviceorder.NewLifecycleService(logger, txScope, orderRepo, appserviceorder.CatalogRepositories{
		Customers: customers,
		Vehicles:  vehicles,
		Services:  services,
	}, bus)

	recorder := &recordingHandler{}
	bus.Subscribe(appserviceorder.NewOrderCancelledHandler(allocation, logger))
	bus.Subscribe(appserviceorder.NewOrderBudgetExpiredHandler(allocation, logger))
	bus.Subscribe(recorder)

	customer, err := catalog.NewCustomer("Ana Pereira", "ana@example.com", "", "")
	require.NoError(t, err)
	require.NoError(t, customers.Save(ctx, customer))
	vehicle, err := catalog.NewVehicle(customer.ID, "RIO2A18", "Honda", "Fit", 2015)
	require.NoError(t, err)
	require.NoError(t, vehicles.Save(ctx, vehicle))
	service, err := catalog.NewService("General repair", "", valueobject.MustBRL(servicePrice))
	require.NoError(t, err)
	require.NoError(t, services.Save(ctx, service))

	return &harness{
		lifecycle:  lifecycle,
		allocation: allocation,
		bus:        bus,
		recorder:   recorder,
		stockRepo:  stockRepo,
		orderRepo:  orderRepo,
		customers:  customers,
		warnings:   warnings,
		customer:   customer,
		vehicle:    vehicle,
		service:    service,
	}
}

func (h *harness) addStockItem(t *testing.T, name, price string, available, minimum int) *stock.StockItem {
	t.Helper()
	item, err := stock.NewStockItem(name, "", valueobject.MustBRL(price), available, minimum)
	require.NoError(t, err)
	require.NoError(t, h.stockRepo.Save(context.Background(), item))
	return item
}

func (h *harness) available(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := h.stockRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.QuantityAvailable
}

func (h *harness) createOrder(t *testing.T) uuid.UUID {
	t.Helper()
	result, err := h.lifecycle.Create(context.Background(), appserviceorder.CreateOrderRequest{
		CustomerID:  h.customer.ID,
		VehicleID:   h.vehicle.ID,
		ServiceID:   h.service.ID,
		Description: "Engine misfire",
	})
	require.NoError(t, err)
	require.False(t, result.Dispatch.Failed())
	return result.Order.ID
}

func (h *harness) setStatus(t *testing.T, orderID uuid.UUID, status serviceorder.OrderStatus) *appserviceorder.TransitionResult {
	t.Helper()
	result, err := h.lifecycle.Update(context.Background(), orderID, appserviceorder.UpdateOrderRequest{Status: &status})
	require.NoError(t, err)
	return result
}

// submitBudget moves a RECEIVED order to AWAITING_APPROVAL
func (h *harness) submitBudget(t *testing.T, orderID uuid.UUID) *appserviceorder.TransitionResult {
	t.Helper()
	h.setStatus(t, orderID, serviceorder.OrderStatusDiagnosing)
	return h.setStatus(t, orderID, serviceorder.OrderStatusAwaitingApproval)
}

func supplies(lines ...appserviceorder.SupplyInput) appserviceorder.AllocateSuppliesRequest {
	return appserviceorder.AllocateSuppliesRequest{Supplies: lines}
}

func line(id uuid.UUID, quantity int) appserviceorder.SupplyInput {
	return appserviceorder.SupplyInput{StockItemID: id, Quantity: quantity}
}

func statusPtr(s serviceorder.OrderStatus) *serviceorder.OrderStatus {
	return &s
}
