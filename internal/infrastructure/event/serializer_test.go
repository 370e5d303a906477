package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_EnvelopeRoundTrip(t *testing.T) {
	s := NewDomainEventSerializer()
	order, err := serviceorder.NewOrder(uuid.New(), uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	order.Status = serviceorder.OrderStatusInExecution
	require.NoError(t, order.ChangeStatus(serviceorder.OrderStatusCancelled))
	cancelled := order.GetDomainEvents()[1]

	data, err := s.SerializeEnvelope(cancelled)
	require.NoError(t, err)

	decoded, err := s.DeserializeEnvelope(data)
	require.NoError(t, err)
	got, ok := decoded.(*serviceorder.OrderCancelledEvent)
	require.True(t, ok)
	assert.Equal(t, order.ID, got.OrderID)
	assert.Equal(t, cancelled.EventID(), got.EventID())
	assert.Equal(t, serviceorder.EventTypeOrderCancelled, got.EventType())
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()
	_, err := s.Deserialize("Nope", []byte(`{}`))
	assert.Error(t, err)
	assert.False(t, s.IsRegistered("Nope"))
}

func TestNewDomainEventSerializer_RegistersAllEvents(t *testing.T) {
	s := NewDomainEventSerializer()
	for _, et := range []string{
		serviceorder.EventTypeOrderCreated,
		serviceorder.EventTypeOrderBudgetReady,
		serviceorder.EventTypeOrderCancelled,
		serviceorder.EventTypeOrderCompleted,
		serviceorder.EventTypeOrderBudgetExpired,
		serviceorder.EventTypeOrderStatusChanged,
		stock.EventTypeStockBelowMinimum,
	} {
		assert.True(t, s.IsRegistered(et), et)
	}
	assert.Len(t, s.RegisteredTypes(), 9)
}
