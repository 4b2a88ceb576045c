package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(1200), JPY)
		require.NoError(t, err)
		assert.Equal(t, JPY, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(1200)))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})

	t.Run("parses amount from string", func(t *testing.T) {
		m, err := NewMoneyFromString("2380", JPY)
		require.NoError(t, err)
		assert.Equal(t, int64(2380), m.IntPart())
	})

	t.Run("rejects malformed amount string", func(t *testing.T) {
		_, err := NewMoneyFromString("abc", JPY)
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		a := NewMoneyJPYFromInt(3600)
		b := NewMoneyJPYFromInt(23800)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, int64(27400), sum.IntPart())
	})

	t.Run("add rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyJPYFromInt(100)
		b, _ := NewMoney(decimal.NewFromInt(100), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		a := NewMoneyJPYFromInt(30140)
		b := NewMoneyJPYFromInt(2740)
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, int64(27400), diff.IntPart())
	})

	t.Run("multiply by quantity", func(t *testing.T) {
		unit := NewMoneyJPYFromInt(2380)
		total := unit.Multiply(decimal.NewFromInt(10))
		assert.Equal(t, int64(23800), total.IntPart())
	})

	t.Run("percentage", func(t *testing.T) {
		subtotal := NewMoneyJPYFromInt(27400)
		tax := subtotal.CalculatePercentage(decimal.NewFromInt(10))
		assert.Equal(t, int64(2740), tax.RoundYen().IntPart())
	})
}

func TestMoneyRoundYen(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"exact yen unchanged", "2740", 2740},
		{"below half rounds down", "104.4", 104},
		{"half rounds up", "104.5", 105},
		{"above half rounds up", "104.6", 105},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, JPY)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.RoundYen().IntPart())
		})
	}
}

func TestMoneyComparison(t *testing.T) {
	t.Run("equals", func(t *testing.T) {
		assert.True(t, NewMoneyJPYFromInt(100).Equals(NewMoneyJPYFromInt(100)))
		assert.False(t, NewMoneyJPYFromInt(100).Equals(NewMoneyJPYFromInt(101)))
	})

	t.Run("greater than", func(t *testing.T) {
		ok, err := NewMoneyJPYFromInt(200).GreaterThan(NewMoneyJPYFromInt(100))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("greater than rejects mixed currencies", func(t *testing.T) {
		usd, _ := NewMoney(decimal.NewFromInt(1), USD)
		_, err := NewMoneyJPYFromInt(1).GreaterThan(usd)
		assert.Error(t, err)
	})
}

func TestMoneyJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		data, err := json.Marshal(NewMoneyJPYFromInt(30140))
		require.NoError(t, err)

		var got Money
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, got.Equals(NewMoneyJPYFromInt(30140)))
	})

	t.Run("missing currency defaults to JPY", func(t *testing.T) {
		var got Money
		require.NoError(t, json.Unmarshal([]byte(`{"amount":"500"}`), &got))
		assert.Equal(t, JPY, got.Currency())
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string value", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("27400"))
		assert.Equal(t, int64(27400), m.IntPart())
		assert.Equal(t, JPY, m.Currency())
	})

	t.Run("scans nil as zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(true))
	})
}
