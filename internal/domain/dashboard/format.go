package dashboard

import (
	"strings"

	"github.com/shopspring/decimal"
)

const currencySuffix = " so'm"

// FormatPrice renders an amount with space-separated thousands and at most two
// decimals: 150000 -> "150 000 so'm".
func FormatPrice(amount decimal.Decimal) string {
	return groupThousands(amount.Round(2).String()) + currencySuffix
}

func groupThousands(number string) string {
	sign := ""
	if strings.HasPrefix(number, "-") {
		sign, number = "-", number[1:]
	}
	whole, frac, hasFrac := strings.Cut(number, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if hasFrac {
		out += "," + frac
	}
	return out
}
