package currency

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatUSD renders an integer cent amount as "$1,234.56".
func FormatUSD(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	dollars := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	result := "$" + addThousandsSeparator(dollars, ",") + "." + pad2(frac)
	if negative {
		result = "-" + result
	}

	return result
}

// FormatPoints renders a points amount with thousands separators.
func FormatPoints(points int64) string {
	if points < 0 {
		return "-" + addThousandsSeparator(strconv.FormatInt(-points, 10), ",")
	}
	return addThousandsSeparator(strconv.FormatInt(points, 10), ",")
}

// FormatCPP renders a cents-per-point value with two decimals, or "n/a".
func FormatCPP(cpp decimal.NullDecimal) string {
	if !cpp.Valid {
		return "n/a"
	}
	return cpp.Decimal.StringFixed(2) + "¢"
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
