package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/processors"
	"github.com/username/tradebook/backend/src/utils"
)

type tradeServiceImpl struct {
	store      *database.Store
	normalizer processors.TradeNormalizer
}

func NewTradeService(store *database.Store, normalizer processors.TradeNormalizer) TradeService {
	return &tradeServiceImpl{store: store, normalizer: normalizer}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// CreateTrade records a manually entered trade. The total amount is derived
// from quantity and price and signed by side like imported trades.
func (s *tradeServiceImpl) CreateTrade(ctx context.Context, in TradeInput) (*models.Trade, error) {
	if in.AccountID <= 0 {
		return nil, validationError("account_id is required")
	}
	if strings.TrimSpace(in.Symbol) == "" {
		return nil, validationError("symbol is required")
	}
	if strings.TrimSpace(in.TransCode) == "" {
		return nil, validationError("trans_code is required")
	}
	if !in.Side.Valid() {
		return nil, validationError("side must be buy or sell")
	}
	if !in.Quantity.IsPositive() {
		return nil, validationError("quantity must be greater than zero")
	}
	if in.Price.IsNegative() {
		return nil, validationError("price must not be negative")
	}
	if in.InstrumentType != "" && !in.InstrumentType.Valid() {
		return nil, validationError("unknown instrument_type %q", in.InstrumentType)
	}

	activityDate, err := utils.ParseDate(in.ActivityDate)
	if err != nil {
		return nil, validationError("activity_date: %v", err)
	}
	executedAt, err := combineDateTime(activityDate, in.ExecutedTime)
	if err != nil {
		return nil, err
	}
	canonical := models.CanonicalTrade{
		Symbol:         in.Symbol,
		InstrumentType: in.InstrumentType,
		OptionType:     in.OptionType,
		StrikePrice:    in.StrikePrice,
		TransCode:      in.TransCode,
		Side:           in.Side,
		Quantity:       in.Quantity,
		Price:          in.Price,
		Amount:         in.Quantity.Mul(in.Price),
		Fees:           in.Fees,
		ActivityDate:   activityDate,
		ExecutedAt:     executedAt,
		Description:    in.Description,
	}
	if canonical.ExpirationDate, err = utils.ParseOptionalDate(in.ExpirationDate); err != nil {
		return nil, validationError("expiration_date: %v", err)
	}
	if canonical.ProcessDate, err = utils.ParseOptionalDate(in.ProcessDate); err != nil {
		return nil, validationError("process_date: %v", err)
	}
	if canonical.SettleDate, err = utils.ParseOptionalDate(in.SettleDate); err != nil {
		return nil, validationError("settle_date: %v", err)
	}

	trade, err := s.normalizer.Normalize(in.AccountID, canonical, models.SourceManual)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err = s.store.WithTx(ctx, func(q *database.Queries) error {
		if _, err := q.GetAccount(ctx, in.AccountID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := ensureUniqueKey(ctx, q, trade); err != nil {
			return err
		}
		return q.InsertTrade(ctx, &trade)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Trade created", "tradeID", trade.ID, "accountID", trade.AccountID, "symbol", trade.Symbol)
	return &trade, nil
}

// UpdateTrade applies a patch and re-normalizes the trade. Provenance and
// creation time are preserved.
func (s *tradeServiceImpl) UpdateTrade(ctx context.Context, id int64, in TradeUpdate) (*models.Trade, error) {
	var updated models.Trade
	err := s.store.WithTx(ctx, func(q *database.Queries) error {
		existing, err := q.GetTrade(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrTradeNotFound
			}
			return err
		}
		canonical, err := applyTradeUpdate(*existing, in)
		if err != nil {
			return err
		}
		updated, err = s.normalizer.Normalize(existing.AccountID, canonical, existing.ImportSource)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		updated.ProcessDate = existing.ProcessDate
		updated.SettleDate = existing.SettleDate
		if err := ensureUniqueKey(ctx, q, updated); err != nil {
			return err
		}
		return q.UpdateTrade(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Trade updated", "tradeID", id)
	return &updated, nil
}

// DeleteTrade removes a manual or imported trade. Trades synced from a
// brokerage API are protected.
func (s *tradeServiceImpl) DeleteTrade(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q *database.Queries) error {
		existing, err := q.GetTrade(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrTradeNotFound
			}
			return err
		}
		if !existing.ImportSource.Deletable() {
			return ErrProtectedTrade
		}
		return q.DeleteTrade(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Trade deleted", "tradeID", id)
	return nil
}

func (s *tradeServiceImpl) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	t, err := s.store.GetTrade(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrTradeNotFound
	}
	return t, err
}

func (s *tradeServiceImpl) ListTrades(ctx context.Context, query TradeQuery) ([]models.Trade, error) {
	filter := database.TradeFilter{
		Scope:  models.Scope{AccountID: query.AccountID},
		Symbol: processors.NormalizeSymbol(query.Symbol),
		Limit:  query.Limit,
	}
	trades, err := s.store.ListTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

func ensureUniqueKey(ctx context.Context, q *database.Queries, t models.Trade) error {
	other, err := q.FindTradeByNaturalKey(ctx, t.NaturalKey())
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != t.ID:
		return fmt.Errorf("%w: matches trade %d", ErrDuplicateTrade, other.ID)
	}
	return nil
}

func applyTradeUpdate(t models.Trade, in TradeUpdate) (models.CanonicalTrade, error) {
	executedAt := t.ExecutedAt
	c := models.CanonicalTrade{
		Symbol:         t.Symbol,
		InstrumentType: t.InstrumentType,
		OptionType:     t.OptionType,
		StrikePrice:    t.StrikePrice,
		ExpirationDate: t.ExpirationDate,
		TransCode:      t.TransCode,
		Side:           t.Side,
		Quantity:       t.Quantity,
		Price:          t.Price,
		Amount:         t.TotalAmount,
		Fees:           t.Fees,
		ActivityDate:   t.ActivityDate,
		ExecutedAt:     &executedAt,
		Description:    t.Description,
	}
	if in.Symbol != nil {
		c.Symbol = *in.Symbol
	}
	if in.InstrumentType != nil {
		if !in.InstrumentType.Valid() {
			return c, validationError("unknown instrument_type %q", *in.InstrumentType)
		}
		c.InstrumentType = *in.InstrumentType
	}
	if in.OptionType != nil {
		c.OptionType = *in.OptionType
	}
	if in.StrikePrice != nil {
		c.StrikePrice = decimal.NewNullDecimal(*in.StrikePrice)
	}
	if in.ExpirationDate != nil {
		exp, err := utils.ParseOptionalDate(*in.ExpirationDate)
		if err != nil {
			return c, validationError("expiration_date: %v", err)
		}
		c.ExpirationDate = exp
	}
	if in.TransCode != nil {
		c.TransCode = *in.TransCode
	}
	if in.Side != nil {
		c.Side = *in.Side
	}
	if in.Quantity != nil {
		if !in.Quantity.IsPositive() {
			return c, validationError("quantity must be greater than zero")
		}
		c.Quantity = *in.Quantity
	}
	if in.Price != nil {
		c.Price = *in.Price
	}
	if in.Quantity != nil || in.Price != nil {
		c.Amount = c.Quantity.Mul(c.Price)
	}
	if in.Fees != nil {
		c.Fees = *in.Fees
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.ActivityDate != nil {
		d, err := utils.ParseDate(*in.ActivityDate)
		if err != nil {
			return c, validationError("activity_date: %v", err)
		}
		// Keep the time of day when only the date moves.
		moved := d.Add(executedAt.Sub(dateOf(executedAt)))
		c.ActivityDate = d
		c.ExecutedAt = &moved
	}
	if in.ExecutedTime != nil {
		at, err := combineDateTime(c.ActivityDate, *in.ExecutedTime)
		if err != nil {
			return c, err
		}
		c.ExecutedAt = at
	}
	return c, nil
}

// combineDateTime places an optional HH:MM or HH:MM:SS time on date.
func combineDateTime(date time.Time, clock string) (*time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return nil, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			at := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			return &at, nil
		}
	}
	return nil, validationError("executed_time %q is not HH:MM", clock)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
