package processors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

var (
	ErrMissingSymbol    = errors.New("symbol is required")
	ErrMissingTransCode = errors.New("transaction code is required")
	ErrInvalidSide      = errors.New("side must be buy or sell")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrIncompleteOption = errors.New("option trades need an option type, strike and expiration")
)

type TradeNormalizerImpl struct{}

func NewTradeNormalizer() *TradeNormalizerImpl {
	return &TradeNormalizerImpl{}
}

// Normalize applies the ledger conventions to a parsed row: uppercase symbol
// without option residue, a total amount whose sign follows the side, an
// execution timestamp and the provenance tag.
func (n *TradeNormalizerImpl) Normalize(accountID int64, c models.CanonicalTrade, source models.ImportSource) (models.Trade, error) {
	symbol := NormalizeSymbol(c.Symbol)
	if symbol == "" {
		return models.Trade{}, ErrMissingSymbol
	}
	transCode := strings.ToUpper(strings.TrimSpace(c.TransCode))
	if transCode == "" {
		return models.Trade{}, ErrMissingTransCode
	}
	if !c.Side.Valid() {
		return models.Trade{}, fmt.Errorf("%w: %q", ErrInvalidSide, c.Side)
	}
	if c.Quantity.IsNegative() {
		return models.Trade{}, ErrNegativeQuantity
	}
	if c.Price.IsNegative() {
		return models.Trade{}, ErrNegativePrice
	}

	instrumentType := c.InstrumentType
	if instrumentType == "" {
		instrumentType = models.InstrumentEquity
	}
	if instrumentType == models.InstrumentOption &&
		(c.OptionType == "" || !c.StrikePrice.Valid || c.ExpirationDate == nil) {
		return models.Trade{}, ErrIncompleteOption
	}

	activityDate := dateOnly(c.ActivityDate)
	executedAt := activityDate
	if c.ExecutedAt != nil && !c.ExecutedAt.IsZero() {
		executedAt = c.ExecutedAt.UTC()
	}

	t := models.Trade{
		AccountID:      accountID,
		Symbol:         symbol,
		InstrumentType: instrumentType,
		TransCode:      transCode,
		Side:           c.Side,
		Quantity:       c.Quantity,
		Price:          c.Price,
		TotalAmount:    SignedAmount(c.Side, c.Amount),
		Fees:           c.Fees.Abs(),
		ActivityDate:   activityDate,
		ProcessDate:    c.ProcessDate,
		SettleDate:     c.SettleDate,
		ExecutedAt:     executedAt,
		Description:    strings.TrimSpace(c.Description),
		State:          models.TradeStateFilled,
		ImportSource:   source,
	}
	if instrumentType == models.InstrumentOption {
		exp := dateOnly(*c.ExpirationDate)
		t.OptionType = c.OptionType
		t.StrikePrice = c.StrikePrice
		t.ExpirationDate = &exp
	}
	return t, nil
}

// SignedAmount applies the ledger sign convention: money leaving the account
// on a buy is negative, money received on a sell is positive.
func SignedAmount(side models.Side, amount decimal.Decimal) decimal.Decimal {
	if side == models.SideBuy {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// NormalizeSymbol uppercases a symbol and strips the leading option marker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimLeft(strings.TrimSpace(symbol), "-"))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
