package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), BRL)
		require.NoError(t, err)
		assert.Equal(t, BRL, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", BRL)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", BRL)
		assert.Error(t, err)
	})
}

func TestMoney_Add(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		sum, err := MustBRL("45.90").Add(MustBRL("30.00"))
		require.NoError(t, err)
		assert.True(t, sum.Equals(MustBRL("75.90")))
	})

	t.Run("different currencies", func(t *testing.T) {
		usd, _ := NewMoneyFromString("1", USD)
		_, err := MustBRL("1").Add(usd)
		assert.Error(t, err)
	})
}

func TestMoney_MultiplyByInt(t *testing.T) {
	m := MustBRL("25.00").MultiplyByInt(2)
	assert.True(t, m.Equals(MustBRL("50")))
}

func TestMoney_Format(t *testing.T) {
	assert.Equal(t, "R$ 85,90", MustBRL("85.9").Format())
	usd, _ := NewMoneyFromString("3.5", USD)
	assert.Equal(t, "USD 3.50", usd.Format())
}

func TestSum(t *testing.T) {
	t.Run("empty list is zero", func(t *testing.T) {
		total, err := Sum()
		require.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.Equal(t, DefaultCurrency, total.Currency())
	})

	t.Run("adds all values", func(t *testing.T) {
		total, err := Sum(MustBRL("100"), MustBRL("50"), MustBRL("50"))
		require.NoError(t, err)
		assert.True(t, total.Equals(MustBRL("200.00")))
	})
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustBRL("10.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"10.50","currency":"BRL"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.25"}`), &m))
	assert.Equal(t, BRL, m.Currency())
	assert.True(t, m.Equals(MustBRL("7.25")))
}

func TestMoney_Scan(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "0"},
		{"string", "12.34", "12.34"},
		{"bytes", []byte("99.90"), "99.9"},
		{"int64", int64(3), "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			require.NoError(t, m.Scan(tt.input))
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tt.want)))
			assert.Equal(t, DefaultCurrency, m.Currency())
		})
	}

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(true))
	})
}
