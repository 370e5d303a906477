package serviceorder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocation(quantity int, unitPrice string, active bool) SupplyAllocation {
	return SupplyAllocation{
		ID:          uuid.New(),
		StockItemID: uuid.New(),
		Quantity:    quantity,
		UnitPrice:   valueobject.MustBRL(unitPrice),
		Active:      active,
	}
}

func TestCalculateBudget(t *testing.T) {
	tests := []struct {
		name         string
		servicePrice string
		allocations  []SupplyAllocation
		want         string
	}{
		{
			name:         "service only",
			servicePrice: "45.90",
			want:         "45.90",
		},
		{
			name:         "service plus two supplies",
			servicePrice: "100.00",
			allocations:  []SupplyAllocation{allocation(2, "25.00", true), allocation(1, "50.00", true)},
			want:         "200.00",
		},
		{
			name:         "inactive allocations are ignored",
			servicePrice: "45.90",
			allocations: []SupplyAllocation{
				allocation(3, "10.00", true),
				allocation(2, "5.00", true),
				allocation(9, "99.00", false),
			},
			want: "85.90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateBudget(valueobject.MustBRL(tt.servicePrice), tt.allocations)
			require.NoError(t, err)
			assert.True(t, got.Equals(valueobject.MustBRL(tt.want)), "got %s", got)
		})
	}
}

func TestCalculateBudget_IsDeterministic(t *testing.T) {
	allocs := []SupplyAllocation{allocation(2, "0.10", true), allocation(3, "0.20", true)}
	first, err := CalculateBudget(valueobject.MustBRL("0.30"), allocs)
	require.NoError(t, err)
	second, err := CalculateBudget(valueobject.MustBRL("0.30"), allocs)
	require.NoError(t, err)
	assert.True(t, first.Equals(second))
	assert.True(t, first.Equals(valueobject.MustBRL("1.10")))
}

func TestCalculateBudget_CurrencyMismatch(t *testing.T) {
	usd, err := valueobject.NewMoneyFromString("1", valueobject.USD)
	require.NoError(t, err)
	a := allocation(1, "1", true)
	a.UnitPrice = usd

	_, err = CalculateBudget(valueobject.MustBRL("1"), []SupplyAllocation{a})
	assert.Error(t, err)
}
