package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Presupuestos-api/pkg/money"
)

func TestFormatCurrency_CodigoValido(t *testing.T) {
	out := money.FormatCurrency(decimal.RequireFromString("1234.5"), "usd")
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "234")
}

func TestFormatCurrency_CodigoInvalido(t *testing.T) {
	assert.Equal(t, "ZZZ9 10.00", money.FormatCurrency(decimal.NewFromInt(10), "zzz9"))
	assert.Equal(t, "10.50", money.FormatCurrency(decimal.RequireFromString("10.5"), ""))
}
