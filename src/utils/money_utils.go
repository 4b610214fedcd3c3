package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney parses a brokerage amount. Currency symbols and thousands
// separators are removed and "(x)" is read as -x. A blank cell is zero.
func ParseMoney(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if IsBlank(v) {
		return decimal.Zero, nil
	}
	v = strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = v[1 : len(v)-1]
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// ParseQuantity parses a share or contract count, dropping a trailing unit
// suffix such as "10S".
func ParseQuantity(s string) (decimal.Decimal, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if IsBlank(v) {
		return decimal.Zero, nil
	}
	v = strings.TrimSuffix(v, "S")
	v = strings.ReplaceAll(v, ",", "")
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", s)
	}
	return d, nil
}

// MinInt returns the smaller of two integers.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
