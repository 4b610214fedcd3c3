package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

// OptionContract holds the parameters recovered from an option symbol or
// description.
type OptionContract struct {
	Underlying string
	Type       models.OptionType
	Strike     decimal.Decimal
	Expiration time.Time
}

var (
	encodedOptionRe     = regexp.MustCompile(`(?i)^([A-Z]+)(\d{6})([CP])(\d+\.?\d*)$`)
	optionDescriptionRe = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}/\d{1,2}/\d{4})\s+(Call|Put)\s+\$(\d+\.?\d*)`)
)

// DecodeOptionSymbol decodes a Fidelity option symbol of the form
// -<TICKER><YYMMDD><C|P><STRIKE>, e.g. -TGT250620P90.
func DecodeOptionSymbol(symbol string) (OptionContract, bool) {
	s := strings.TrimSpace(symbol)
	if !strings.HasPrefix(s, "-") {
		return OptionContract{}, false
	}
	m := encodedOptionRe.FindStringSubmatch(strings.TrimSpace(s[1:]))
	if m == nil {
		return OptionContract{}, false
	}

	yy, _ := strconv.Atoi(m[2][0:2])
	mm, _ := strconv.Atoi(m[2][2:4])
	dd, _ := strconv.Atoi(m[2][4:6])
	exp := time.Date(2000+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if exp.Month() != time.Month(mm) || exp.Day() != dd {
		return OptionContract{}, false
	}

	strike, err := decimal.NewFromString(m[4])
	if err != nil {
		return OptionContract{}, false
	}

	optType := models.OptionCall
	if strings.EqualFold(m[3], "P") {
		optType = models.OptionPut
	}
	return OptionContract{
		Underlying: strings.ToUpper(m[1]),
		Type:       optType,
		Strike:     strike,
		Expiration: exp,
	}, true
}

// ParseOptionDescription finds "<SYM> <M/D/YYYY> <Call|Put> $<strike>" in a
// free-text description.
func ParseOptionDescription(description string) (OptionContract, bool) {
	m := optionDescriptionRe.FindStringSubmatch(description)
	if m == nil {
		return OptionContract{}, false
	}
	exp, err := time.Parse("1/2/2006", m[2])
	if err != nil {
		return OptionContract{}, false
	}
	strike, err := decimal.NewFromString(m[4])
	if err != nil {
		return OptionContract{}, false
	}
	return OptionContract{
		Underlying: strings.ToUpper(m[1]),
		Type:       models.OptionType(strings.ToLower(m[3])),
		Strike:     strike,
		Expiration: exp.UTC(),
	}, true
}

// Apply copies the contract parameters onto a canonical trade.
func (c OptionContract) Apply(t *models.CanonicalTrade) {
	exp := c.Expiration
	t.InstrumentType = models.InstrumentOption
	t.OptionType = c.Type
	t.StrikePrice = decimal.NewNullDecimal(c.Strike)
	t.ExpirationDate = &exp
}
