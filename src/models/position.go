package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentIdentity distinguishes one equity or option contract within an
// account. Strike and expiration are kept in their canonical string forms so
// the struct is comparable and usable as a map key.
type InstrumentIdentity struct {
	AccountID      int64
	Symbol         string
	InstrumentType InstrumentType
	Strike         string
	Expiration     string
	OptionType     OptionType
}

// Position is a derived holding. Rows only exist while the replayed quantity
// is positive.
type Position struct {
	ID              int64               `json:"id"`
	AccountID       int64               `json:"account_id"`
	Symbol          string              `json:"symbol"`
	InstrumentType  InstrumentType      `json:"instrument_type"`
	OptionType      OptionType          `json:"option_type,omitempty"`
	StrikePrice     decimal.NullDecimal `json:"strike_price"`
	ExpirationDate  *time.Time          `json:"expiration_date,omitempty"`
	Quantity        decimal.Decimal     `json:"quantity"`
	AverageCost     decimal.Decimal     `json:"average_buy_price"`
	CurrentPrice    decimal.NullDecimal `json:"current_price"`
	CurrentValue    decimal.NullDecimal `json:"current_value"`
	DayChange       decimal.NullDecimal `json:"day_change"`
	LastPriceUpdate *time.Time          `json:"last_price_update,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Scope selects one account, or every active account when AccountID is nil.
type Scope struct {
	AccountID *int64
}

func AllAccounts() Scope { return Scope{} }

func ForAccount(id int64) Scope { return Scope{AccountID: &id} }
