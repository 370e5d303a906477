package serviceorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appserviceorder "github.com/oficina/backend/internal/application/serviceorder"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/oficina/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleService_Create(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")

	t.Run("opens a received order without budget", func(t *testing.T) {
		result, err := h.lifecycle.Create(ctx, appserviceorder.CreateOrderRequest{
			CustomerID: h.customer.ID,
			VehicleID:  h.vehicle.ID,
			ServiceID:  h.service.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, serviceorder.OrderStatusReceived, result.Order.Status)
		assert.Nil(t, result.Order.Budget)
		assert.Nil(t, result.Order.BudgetSentAt)
		assert.True(t, result.Order.Active)
		assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCreated))
	})

	t.Run("unresolvable references", func(t *testing.T) {
		tests := []struct {
			name string
			req  appserviceorder.CreateOrderRequest
			code string
		}{
			{"unknown customer", appserviceorder.CreateOrderRequest{CustomerID: uuid.New(), VehicleID: h.vehicle.ID, ServiceID: h.service.ID}, "CUSTOMER_NOT_FOUND"},
			{"unknown vehicle", appserviceorder.CreateOrderRequest{CustomerID: h.customer.ID, VehicleID: uuid.New(), ServiceID: h.service.ID}, "VEHICLE_NOT_FOUND"},
			{"unknown service", appserviceorder.CreateOrderRequest{CustomerID: h.customer.ID, VehicleID: h.vehicle.ID, ServiceID: uuid.New()}, "SERVICE_NOT_FOUND"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := h.lifecycle.Create(ctx, tt.req)
				require.Error(t, err)
				assert.ErrorIs(t, err, shared.ErrNotFound)
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.code, de.Code)
			})
		}
	})

	t.Run("vehicle of another customer", func(t *testing.T) {
		other, err := catalog.NewCustomer("Bruno Costa", "bruno@example.com", "", "")
		require.NoError(t, err)
		require.NoError(t, h.customers.Save(ctx, other))

		_, err = h.lifecycle.Create(ctx, appserviceorder.CreateOrderRequest{
			CustomerID: other.ID,
			VehicleID:  h.vehicle.ID,
			ServiceID:  h.service.ID,
		})
		require.ErrorIs(t, err, shared.ErrNotFound)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VEHICLE_NOT_OWNED", de.Code)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := h.lifecycle.Create(ctx, appserviceorder.CreateOrderRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestLifecycleService_BudgetScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")
	a := h.addStockItem(t, "Item A", "10.00", 20, 0)
	b := h.addStockItem(t, "Item B", "5.00", 10, 0)

	orderID := h.createOrder(t)
	order, err := h.lifecycle.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, serviceorder.OrderStatusReceived, order.Status)
	assert.Nil(t, order.Budget)

	_, err = h.allocation.Allocate(ctx, orderID, supplies(line(a.ID, 3), line(b.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, 17, h.available(t, a.ID))
	assert.Equal(t, 8, h.available(t, b.ID))

	result := h.submitBudget(t, orderID)
	require.False(t, result.Dispatch.Failed())
	assert.Equal(t, serviceorder.OrderStatusAwaitingApproval, result.Order.Status)
	require.NotNil(t, result.Order.Budget)
	assert.True(t, result.Order.Budget.Equals(valueobject.MustBRL("85.90")), result.Order.Budget.String())
	assert.NotNil(t, result.Order.BudgetSentAt)
	assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderBudgetReady))

	h.recorder.reset()
	result, err = h.lifecycle.RejectBudget(ctx, orderID)
	require.NoError(t, err)
	require.False(t, result.Dispatch.Failed(), result.Dispatch.String())
	assert.Equal(t, serviceorder.OrderStatusCancelled, result.Order.Status)

	assert.Equal(t, 20, h.available(t, a.ID))
	assert.Equal(t, 10, h.available(t, b.ID))
	assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCancelled))
	assert.Equal(t, 2, h.recorder.count(stock.EventTypeStockCredited))

	stored, err := h.lifecycle.GetByID(ctx, orderID)
	require.NoError(t, err)
	for _, allocation := range stored.Allocations {
		assert.False(t, allocation.Active)
	}
}

func TestLifecycleService_BudgetFormula(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "100.00")
	a := h.addStockItem(t, "Part A", "25.00", 10, 0)
	b := h.addStockItem(t, "Part B", "50.00", 10, 0)
	orderID := h.createOrder(t)

	_, err := h.allocation.Allocate(ctx, orderID, supplies(line(a.ID, 2), line(b.ID, 1)))
	require.NoError(t, err)

	result := h.submitBudget(t, orderID)
	require.NotNil(t, result.Order.Budget)
	assert.True(t, result.Order.Budget.Equals(valueobject.MustBRL("200.00")), result.Order.Budget.String())
}

func TestLifecycleService_Cancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every allocation exactly once", func(t *testing.T) {
		h := newHarness(t, "45.90")
		items := []*stock.StockItem{
			h.addStockItem(t, "P1", "1.00", 10, 0),
			h.addStockItem(t, "P2", "2.00", 10, 0),
			h.addStockItem(t, "P3", "3.00", 10, 0),
		}
		orderID := h.createOrder(t)
		_, err := h.allocation.Allocate(ctx, orderID, supplies(line(items[0].ID, 1), line(items[1].ID, 2), line(items[2].ID, 3)))
		require.NoError(t, err)
		h.setStatus(t, orderID, serviceorder.OrderStatusDiagnosing)
		h.recorder.reset()

		result := h.setStatus(t, orderID, serviceorder.OrderStatusCancelled)
		assert.False(t, result.Dispatch.Failed())

		assert.Equal(t, 3, h.recorder.count(stock.EventTypeStockCredited))
		assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCancelled))
		for _, item := range items {
			assert.Equal(t, 10, h.available(t, item.ID))
		}

		_, err = h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{Status: statusPtr(serviceorder.OrderStatusCancelled)})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCancelled))
		assert.Equal(t, 3, h.recorder.count(stock.EventTypeStockCredited))
	})

	t.Run("order without allocations", func(t *testing.T) {
		h := newHarness(t, "45.90")
		item := h.addStockItem(t, "Untouched", "1.00", 4, 0)
		orderID := h.createOrder(t)
		h.recorder.reset()

		result := h.setStatus(t, orderID, serviceorder.OrderStatusCancelled)
		assert.False(t, result.Dispatch.Failed())
		assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCancelled))
		assert.Zero(t, h.recorder.count(stock.EventTypeStockCredited))
		assert.Equal(t, 4, h.available(t, item.ID))
	})

	t.Run("retired stock item still takes its supplies back", func(t *testing.T) {
		h := newHarness(t, "45.90")
		item := h.addStockItem(t, "Discontinued gasket", "12.00", 5, 0)
		orderID := h.createOrder(t)
		_, err := h.allocation.Allocate(ctx, orderID, supplies(line(item.ID, 3)))
		require.NoError(t, err)

		retired, err := h.stockRepo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		retired.Deactivate()
		require.NoError(t, h.stockRepo.Save(ctx, retired))

		result := h.setStatus(t, orderID, serviceorder.OrderStatusCancelled)
		require.False(t, result.Dispatch.Failed(), result.Dispatch.String())
		assert.Equal(t, 5, h.available(t, item.ID))

		order, err := h.lifecycle.GetByID(ctx, orderID)
		require.NoError(t, err)
		for _, allocation := range order.Allocations {
			assert.False(t, allocation.Active)
		}
		assert.NoError(t, h.lifecycle.Delete(ctx, orderID))
	})
}

func TestLifecycleService_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")

	tests := []struct {
		name   string
		path   []serviceorder.OrderStatus
		target serviceorder.OrderStatus
	}{
		{"received to completed", nil, serviceorder.OrderStatusCompleted},
		{"received to in execution", nil, serviceorder.OrderStatusInExecution},
		{"received to awaiting approval", nil, serviceorder.OrderStatusAwaitingApproval},
		{"received to received", nil, serviceorder.OrderStatusReceived},
		{"diagnosing to completed", []serviceorder.OrderStatus{serviceorder.OrderStatusDiagnosing}, serviceorder.OrderStatusCompleted},
		{"diagnosing to budget expired", []serviceorder.OrderStatus{serviceorder.OrderStatusDiagnosing}, serviceorder.OrderStatusBudgetExpired},
		{"cancelled to diagnosing", []serviceorder.OrderStatus{serviceorder.OrderStatusCancelled}, serviceorder.OrderStatusDiagnosing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderID := h.createOrder(t)
			for _, s := range tt.path {
				h.setStatus(t, orderID, s)
			}
			before, err := h.lifecycle.GetByID(ctx, orderID)
			require.NoError(t, err)
			h.recorder.reset()

			_, err = h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{
				Description: stringPtr("should not persist"),
				Status:      statusPtr(tt.target),
			})
			assert.ErrorIs(t, err, shared.ErrInvalidTransition)

			after, err := h.lifecycle.GetByID(ctx, orderID)
			require.NoError(t, err)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.Description, after.Description)
			assert.Equal(t, before.Version, after.Version)
			assert.Empty(t, h.recorder.events)
		})
	}

	t.Run("budget decisions outside approval", func(t *testing.T) {
		orderID := h.createOrder(t)

		_, err := h.lifecycle.AcceptBudget(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		_, err = h.lifecycle.RejectBudget(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		_, err = h.lifecycle.ExpireBudget(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		orderID := h.createOrder(t)
		_, err := h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{Status: statusPtr("REPAIRED")})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := h.lifecycle.AcceptBudget(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLifecycleService_HappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")
	orderID := h.createOrder(t)
	h.submitBudget(t, orderID)

	result, err := h.lifecycle.AcceptBudget(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, serviceorder.OrderStatusInExecution, result.Order.Status)

	result = h.setStatus(t, orderID, serviceorder.OrderStatusCompleted)
	assert.Equal(t, serviceorder.OrderStatusCompleted, result.Order.Status)
	assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderCompleted))
	assert.Equal(t, 4, h.recorder.count(serviceorder.EventTypeOrderStatusChanged))
}

func TestLifecycleService_Update(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")
	orderID := h.createOrder(t)

	t.Run("description only", func(t *testing.T) {
		h.recorder.reset()
		result, err := h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{Description: stringPtr("Rattle at idle")})
		require.NoError(t, err)
		assert.Equal(t, "Rattle at idle", result.Order.Description)
		assert.Equal(t, serviceorder.OrderStatusReceived, result.Order.Status)
		assert.Empty(t, h.recorder.events)
	})

	t.Run("empty update changes nothing", func(t *testing.T) {
		before, err := h.lifecycle.GetByID(ctx, orderID)
		require.NoError(t, err)

		result, err := h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{})
		require.NoError(t, err)
		assert.Equal(t, before.Version, result.Order.Version)
		assert.Equal(t, "Rattle at idle", result.Order.Description)
	})
}

func TestLifecycleService_PartialSuccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")
	h.bus.Subscribe(&failingHandler{types: []string{serviceorder.EventTypeOrderCompleted}})

	orderID := h.createOrder(t)
	h.submitBudget(t, orderID)
	_, err := h.lifecycle.AcceptBudget(ctx, orderID)
	require.NoError(t, err)

	result, err := h.lifecycle.Update(ctx, orderID, appserviceorder.UpdateOrderRequest{Status: statusPtr(serviceorder.OrderStatusCompleted)})
	require.NoError(t, err)
	require.True(t, result.Dispatch.Failed())

	sideEffect := result.SideEffectError()
	require.NotNil(t, sideEffect)
	assert.Equal(t, serviceorder.EventTypeOrderCompleted, sideEffect.EventType)
	assert.Equal(t, "failingHandler", sideEffect.Handler)
	assert.ErrorContains(t, sideEffect, "mail server unavailable")
	// the status change that followed the failed event was never dispatched
	require.Len(t, result.Dispatch.Undelivered, 1)
	assert.Equal(t, serviceorder.EventTypeOrderStatusChanged, result.Dispatch.Undelivered[0].EventType())

	stored, err := h.lifecycle.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, serviceorder.OrderStatusCompleted, stored.Status)
}

func TestLifecycleService_ExpireBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("expired budget cannot be decided", func(t *testing.T) {
		h := newHarness(t, "45.90")
		orderID := h.createOrder(t)
		h.submitBudget(t, orderID)

		result, err := h.lifecycle.ExpireBudget(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, serviceorder.OrderStatusBudgetExpired, result.Order.Status)
		assert.Equal(t, 1, h.recorder.count(serviceorder.EventTypeOrderBudgetExpired))

		_, err = h.lifecycle.AcceptBudget(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrBudgetExpired)
		_, err = h.lifecycle.RejectBudget(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrBudgetExpired)
	})

	t.Run("expiry returns the order supplies", func(t *testing.T) {
		h := newHarness(t, "45.90")
		item := h.addStockItem(t, "Timing belt", "80.00", 5, 0)
		orderID := h.createOrder(t)
		_, err := h.allocation.Allocate(ctx, orderID, supplies(line(item.ID, 4)))
		require.NoError(t, err)
		h.submitBudget(t, orderID)
		assert.Equal(t, 1, h.available(t, item.ID))
		h.recorder.reset()

		result, err := h.lifecycle.ExpireBudget(ctx, orderID)
		require.NoError(t, err)
		require.False(t, result.Dispatch.Failed(), result.Dispatch.String())
		assert.Equal(t, 5, h.available(t, item.ID))
		assert.Equal(t, 1, h.recorder.count(stock.EventTypeStockCredited))

		order, err := h.lifecycle.GetByID(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, order.Allocations, 1)
		assert.False(t, order.Allocations[0].Active)
		assert.NoError(t, h.lifecycle.Delete(ctx, orderID))
	})

	t.Run("sweep expires only stale budgets", func(t *testing.T) {
		h := newHarness(t, "45.90")
		pending := h.createOrder(t)
		h.submitBudget(t, pending)
		untouched := h.createOrder(t)

		expired, err := h.lifecycle.ExpireStaleBudgets(ctx, time.Hour, 10)
		require.NoError(t, err)
		assert.Zero(t, expired)

		time.Sleep(10 * time.Millisecond)
		expired, err = h.lifecycle.ExpireStaleBudgets(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)

		order, err := h.lifecycle.GetByID(ctx, pending)
		require.NoError(t, err)
		assert.Equal(t, serviceorder.OrderStatusBudgetExpired, order.Status)
		order, err = h.lifecycle.GetByID(ctx, untouched)
		require.NoError(t, err)
		assert.Equal(t, serviceorder.OrderStatusReceived, order.Status)
	})

	t.Run("sweep keeps going when side effects fail", func(t *testing.T) {
		h := newHarness(t, "45.90")
		h.bus.Subscribe(&failingHandler{types: []string{serviceorder.EventTypeOrderBudgetExpired}})
		first := h.createOrder(t)
		h.submitBudget(t, first)
		second := h.createOrder(t)
		h.submitBudget(t, second)

		time.Sleep(10 * time.Millisecond)
		expired, err := h.lifecycle.ExpireStaleBudgets(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, expired)

		for _, id := range []uuid.UUID{first, second} {
			order, err := h.lifecycle.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, serviceorder.OrderStatusBudgetExpired, order.Status)
		}

		summary := h.warnings.FilterMessage("side effects failed during budget expiry sweep").All()
		require.Len(t, summary, 1)
		assert.Contains(t, summary[0].ContextMap()["dispatch"], "failingHandler")
	})
}

func TestLifecycleService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "45.90")
	item := h.addStockItem(t, "Gasket", "12.00", 5, 0)

	first := h.createOrder(t)
	second := h.createOrder(t)
	h.setStatus(t, second, serviceorder.OrderStatusDiagnosing)

	received, err := h.lifecycle.ListByStatus(ctx, serviceorder.OrderStatusReceived, serviceorder.ListFilter{})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, first, received[0].ID)

	_, err = h.lifecycle.ListByStatus(ctx, "SOMETHING", serviceorder.ListFilter{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	t.Run("refused while supplies are held", func(t *testing.T) {
		_, err := h.allocation.Allocate(ctx, first, supplies(line(item.ID, 2)))
		require.NoError(t, err)

		err = h.lifecycle.Delete(ctx, first)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		_, err = h.lifecycle.GetByID(ctx, first)
		assert.NoError(t, err)
	})

	t.Run("allowed after cancellation", func(t *testing.T) {
		h.setStatus(t, first, serviceorder.OrderStatusCancelled)
		assert.Equal(t, 5, h.available(t, item.ID))

		require.NoError(t, h.lifecycle.Delete(ctx, first))
		_, err := h.lifecycle.GetByID(ctx, first)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown order", func(t *testing.T) {
		assert.ErrorIs(t, h.lifecycle.Delete(ctx, uuid.New()), shared.ErrNotFound)
	})
}

func stringPtr(s string) *string {
	return &s
}
