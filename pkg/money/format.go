// Package money formatea importes para visualización. Nunca altera la precisión almacenada.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.LatinAmericanSpanish)

// FormatCurrency devuelve el importe con símbolo y separadores locales (es-419).
// Si el código de moneda no es ISO 4217 se devuelve "<código> <importe>" con 2 decimales.
func FormatCurrency(amount decimal.Decimal, currencyCode string) string {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return amount.StringFixed(2)
		}
		return code + " " + amount.StringFixed(2)
	}
	// La conversión a float es solo para el formateador; el valor persistido sigue siendo decimal.
	return printer.Sprint(currency.Symbol(unit.Amount(amount.Round(2).InexactFloat64())))
}
