package models

import "strings"

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

var buyCodes = map[string]bool{
	"BTO": true,
	"BTC": true,
	"BUY": true,
}

var sellCodes = map[string]bool{
	"STO":  true,
	"STC":  true,
	"SELL": true,
}

// Pseudo-codes for cash events. They are recorded in the ledger but never
// move a position's quantity.
var nonTradingCodes = map[string]bool{
	"DIV":   true,
	"CDIV":  true,
	"INT":   true,
	"REINV": true,
	"FEE":   true,
	"AFEE":  true,
	"DFEE":  true,
	"ACH":   true,
	"GOLD":  true,
	"SLIP":  true,
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsBuyCode(code string) bool {
	return buyCodes[normalizeCode(code)]
}

func IsSellCode(code string) bool {
	return sellCodes[normalizeCode(code)]
}

func IsNonTradingCode(code string) bool {
	return nonTradingCodes[normalizeCode(code)]
}

// QuantitySign returns +1, -1 or 0 for the effect a trade has on the held
// quantity. Codes outside the tables fall back to the recorded side.
func QuantitySign(code string, side Side) int {
	switch {
	case IsNonTradingCode(code):
		return 0
	case IsBuyCode(code):
		return 1
	case IsSellCode(code):
		return -1
	case side == SideBuy:
		return 1
	case side == SideSell:
		return -1
	default:
		return 0
	}
}
