package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Customer), args.Error(1)
}

func (m *mockCustomerRepository) Save(ctx context.Context, customer *catalog.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

type fixture struct {
	customers *mockCustomerRepository
	sender    *mockSender
	handlers  map[string]shared.EventHandler
	customer  *catalog.Customer
	order     *serviceorder.Order
}

func newFixture(t *testing.T, email string) *fixture {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)

	customer, err := catalog.NewCustomer("joão da silva", email, "", "")
	require.NoError(t, err)
	order, err := serviceorder.NewOrder(customer.ID, uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	f := &fixture{
		customers: &mockCustomerRepository{},
		sender:    &mockSender{},
		handlers:  map[string]shared.EventHandler{},
		customer:  customer,
		order:     order,
	}
	for _, h := range Handlers(f.customers, f.sender, renderer, zap.NewNop()) {
		for _, eventType := range h.EventTypes() {
			f.handlers[eventType] = h
		}
	}
	return f
}

func TestHandlers_Subscriptions(t *testing.T) {
	f := newFixture(t, "joao@example.com")
	assert.Len(t, f.handlers, 3)
	assert.Contains(t, f.handlers, serviceorder.EventTypeOrderCreated)
	assert.Contains(t, f.handlers, serviceorder.EventTypeOrderBudgetReady)
	assert.Contains(t, f.handlers, serviceorder.EventTypeOrderCompleted)
}

func TestBudgetReadyHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the budget to the customer", func(t *testing.T) {
		f := newFixture(t, "joao@example.com")
		require.NoError(t, f.order.SubmitBudget(valueobject.MustBRL("85.90"), time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)))
		event := serviceorder.NewOrderBudgetReadyEvent(f.order)

		f.customers.On("FindByID", ctx, f.customer.ID).Return(f.customer, nil)
		f.sender.On("Send", ctx, mock.MatchedBy(func(msg Message) bool {
			return assert.ObjectsAreEqual([]string{"joao@example.com"}, msg.To) &&
				assert.Contains(t, msg.Subject, orderNumber(f.order.ID)) &&
				assert.Contains(t, msg.Body, "João Da Silva") &&
				assert.Contains(t, msg.Body, "R$ 85,90") &&
				assert.Contains(t, msg.Body, "02/03/2026 14:30")
		})).Return(nil).Once()

		require.NoError(t, f.handlers[serviceorder.EventTypeOrderBudgetReady].Handle(ctx, event))
		f.sender.AssertExpectations(t)
	})

	t.Run("send failure is returned", func(t *testing.T) {
		f := newFixture(t, "joao@example.com")
		f.customers.On("FindByID", ctx, f.customer.ID).Return(f.customer, nil)
		f.sender.On("Send", ctx, mock.Anything).Return(errors.New("connection refused"))

		err := f.handlers[serviceorder.EventTypeOrderBudgetReady].Handle(ctx, serviceorder.NewOrderBudgetReadyEvent(f.order))
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestCustomerNotifier_Skips(t *testing.T) {
	ctx := context.Background()

	t.Run("customer without email", func(t *testing.T) {
		f := newFixture(t, "")
		f.customers.On("FindByID", ctx, f.customer.ID).Return(f.customer, nil)

		require.NoError(t, f.handlers[serviceorder.EventTypeOrderCompleted].Handle(ctx, serviceorder.NewOrderCompletedEvent(f.order)))
		f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("customer deleted", func(t *testing.T) {
		f := newFixture(t, "joao@example.com")
		f.customers.On("FindByID", ctx, f.customer.ID).Return(nil, shared.ErrNotFound)

		require.NoError(t, f.handlers[serviceorder.EventTypeOrderCreated].Handle(ctx, serviceorder.NewOrderCreatedEvent(f.order)))
		f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newFixture(t, "joao@example.com")
		f.customers.On("FindByID", ctx, f.customer.ID).Return(nil, shared.ErrPersistence)

		err := f.handlers[serviceorder.EventTypeOrderCreated].Handle(ctx, serviceorder.NewOrderCreatedEvent(f.order))
		assert.ErrorIs(t, err, shared.ErrPersistence)
	})

	t.Run("wrong event", func(t *testing.T) {
		f := newFixture(t, "joao@example.com")
		err := f.handlers[serviceorder.EventTypeOrderCompleted].Handle(ctx, serviceorder.NewOrderCreatedEvent(f.order))
		assert.Error(t, err)
	})
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	subject, body, err := r.Render(TemplateCompleted, TemplateData{OrderNumber: "AB12CD34", CustomerName: "  maria  "})
	require.NoError(t, err)
	assert.Equal(t, "Ordem de serviço AB12CD34 concluída", subject)
	assert.Contains(t, body, "Olá, Maria.")

	_, _, err = r.Render("unknown", TemplateData{})
	assert.Error(t, err)
}
