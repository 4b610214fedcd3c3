package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalTrade is what a brokerage parser produces for one CSV row, before
// sign normalization and provenance tagging.
type CanonicalTrade struct {
	// --- Fields populated by the parser ---
	Format         BrokerageFormat
	Symbol         string
	InstrumentType InstrumentType
	OptionType     OptionType
	StrikePrice    decimal.NullDecimal
	ExpirationDate *time.Time
	TransCode      string
	Side           Side
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	Amount         decimal.Decimal // as found in the source, sign not trusted
	Fees           decimal.Decimal
	ActivityDate   time.Time
	ProcessDate    *time.Time
	SettleDate     *time.Time
	ExecutedAt     *time.Time
	Description    string
}

// ParsedRow is the outcome for one data row. Exactly one of Trade, Skipped
// or Err is meaningful.
type ParsedRow struct {
	Line    int // 1-based, header is line 1
	Trade   *CanonicalTrade
	Skipped bool
	Err     error
}

// ParsedLedger holds every data row of a file in file order.
type ParsedLedger struct {
	Format BrokerageFormat
	Rows   []ParsedRow
}

func (l *ParsedLedger) DataRows() int {
	return len(l.Rows)
}
