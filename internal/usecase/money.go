package usecase

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders amount in currency, e.g. "$1,234.50". Unknown
// currencies fall back to the plain amount followed by the code.
func formatMoney(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	d := decimal.NewFromFloat(amount)

	cur := money.GetCurrency(code)
	if cur == nil {
		if code == "" {
			return d.StringFixed(2)
		}
		return d.StringFixed(2) + " " + code
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := d.Mul(factor).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
