package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(" Maria Souza ", "maria@example.com", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", c.Name)
	assert.True(t, c.HasEmail())

	_, err = NewCustomer("", "", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewCustomer("Joao", "not-an-email", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewVehicle(t *testing.T) {
	owner := uuid.New()
	v, err := NewVehicle(owner, " abc1d23 ", "Fiat", "Uno", 2010)
	require.NoError(t, err)
	assert.Equal(t, "ABC1D23", v.Plate)
	assert.True(t, v.BelongsTo(owner))
	assert.False(t, v.BelongsTo(uuid.New()))

	_, err = NewVehicle(uuid.Nil, "X", "", "", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewService(t *testing.T) {
	s, err := NewService("Oil change", "", valueobject.MustBRL("45.90"))
	require.NoError(t, err)
	assert.True(t, s.Price.Equals(valueobject.MustBRL("45.90")))

	_, err = NewService("Oil change", "", valueobject.MustBRL("-1"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
