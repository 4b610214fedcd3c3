package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

type InstrumentType string

const (
	InstrumentEquity InstrumentType = "equity"
	InstrumentOption InstrumentType = "option"
)

func (t InstrumentType) Valid() bool {
	return t == InstrumentEquity || t == InstrumentOption
}

type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// ImportSource records where a trade came from. Only manual and csv_import
// trades may be deleted by the user.
type ImportSource string

const (
	SourceManual    ImportSource = "manual"
	SourceCSVImport ImportSource = "csv_import"
	SourceAPISync   ImportSource = "api_sync"
)

func (s ImportSource) Deletable() bool {
	return s == SourceManual || s == SourceCSVImport
}

const TradeStateFilled = "filled"

// Trade is one executed transaction as stored in the ledger.
type Trade struct {
	ID             int64               `json:"id"`
	AccountID      int64               `json:"account_id"`
	Symbol         string              `json:"symbol"`
	InstrumentType InstrumentType      `json:"instrument_type"`
	OptionType     OptionType          `json:"option_type,omitempty"`
	StrikePrice    decimal.NullDecimal `json:"strike_price"`
	ExpirationDate *time.Time          `json:"expiration_date,omitempty"`
	TransCode      string              `json:"trans_code"`
	Side           Side                `json:"side"`
	Quantity       decimal.Decimal     `json:"quantity"`
	Price          decimal.Decimal     `json:"price"`
	TotalAmount    decimal.Decimal     `json:"total_amount"` // negative on buys, positive on sells
	Fees           decimal.Decimal     `json:"fees"`
	ActivityDate   time.Time           `json:"activity_date"`
	ProcessDate    *time.Time          `json:"process_date,omitempty"`
	SettleDate     *time.Time          `json:"settle_date,omitempty"`
	ExecutedAt     time.Time           `json:"executed_at"`
	Description    string              `json:"description"`
	State          string              `json:"state"`
	ImportSource   ImportSource        `json:"import_source"`
	CreatedAt      time.Time           `json:"created_at"`
}

// TradeKey is the natural key used to detect re-imported rows.
type TradeKey struct {
	AccountID    int64
	Symbol       string
	ActivityDate time.Time
	TransCode    string
	TotalAmount  decimal.Decimal
}

func (t Trade) NaturalKey() TradeKey {
	return TradeKey{
		AccountID:    t.AccountID,
		Symbol:       t.Symbol,
		ActivityDate: t.ActivityDate,
		TransCode:    t.TransCode,
		TotalAmount:  t.TotalAmount,
	}
}

// Identity returns the instrument identity this trade contributes to.
func (t Trade) Identity() InstrumentIdentity {
	id := InstrumentIdentity{
		AccountID:      t.AccountID,
		Symbol:         t.Symbol,
		InstrumentType: t.InstrumentType,
	}
	if t.InstrumentType == InstrumentOption {
		id.OptionType = t.OptionType
		if t.StrikePrice.Valid {
			id.Strike = t.StrikePrice.Decimal.String()
		}
		if t.ExpirationDate != nil {
			id.Expiration = t.ExpirationDate.Format(DateLayout)
		}
	}
	return id
}
