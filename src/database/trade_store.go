package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/tradebook/backend/src/models"
)

const tradeColumns = `t.id, t.account_id, t.symbol, t.instrument_type, t.option_type, t.strike_price,
	t.expiration_date, t.trans_code, t.side, t.quantity, t.price, t.total_amount, t.fees,
	t.activity_date, t.process_date, t.settle_date, t.executed_at, t.description, t.state,
	t.import_source, t.created_at`

// TradeFilter narrows ListTrades. The zero value lists every trade of every
// active account.
type TradeFilter struct {
	Scope  models.Scope
	Symbol string
	Limit  int
}

func scanTrade(s rowScanner) (*models.Trade, error) {
	var (
		t                                   models.Trade
		instrumentType, side, source        string
		optionType, strike, expiration      sql.NullString
		processDate, settleDate             sql.NullString
		activityDate, executedAt, createdAt string
	)
	err := s.Scan(&t.ID, &t.AccountID, &t.Symbol, &instrumentType, &optionType, &strike,
		&expiration, &t.TransCode, &side, &t.Quantity, &t.Price, &t.TotalAmount, &t.Fees,
		&activityDate, &processDate, &settleDate, &executedAt, &t.Description, &t.State,
		&source, &createdAt)
	if err != nil {
		return nil, err
	}

	t.InstrumentType = models.InstrumentType(instrumentType)
	t.Side = models.Side(side)
	t.ImportSource = models.ImportSource(source)
	t.OptionType = models.OptionType(optionType.String)

	if t.StrikePrice, err = parseNullableDecimal(strike); err != nil {
		return nil, fmt.Errorf("trade %d strike_price: %w", t.ID, err)
	}
	if t.ExpirationDate, err = parseNullableDate(expiration); err != nil {
		return nil, fmt.Errorf("trade %d expiration_date: %w", t.ID, err)
	}
	if t.ActivityDate, err = parseDate(activityDate); err != nil {
		return nil, fmt.Errorf("trade %d activity_date: %w", t.ID, err)
	}
	if t.ProcessDate, err = parseNullableDate(processDate); err != nil {
		return nil, fmt.Errorf("trade %d process_date: %w", t.ID, err)
	}
	if t.SettleDate, err = parseNullableDate(settleDate); err != nil {
		return nil, fmt.Errorf("trade %d settle_date: %w", t.ID, err)
	}
	if t.ExecutedAt, err = parseTimestamp(executedAt); err != nil {
		return nil, fmt.Errorf("trade %d executed_at: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("trade %d created_at: %w", t.ID, err)
	}
	return &t, nil
}

func tradeArgs(t *models.Trade) []any {
	var optionType any
	if t.OptionType != "" {
		optionType = string(t.OptionType)
	}
	return []any{
		t.AccountID, t.Symbol, string(t.InstrumentType), optionType, nullableDecimal(t.StrikePrice),
		nullableDate(t.ExpirationDate), t.TransCode, string(t.Side), t.Quantity.String(), t.Price.String(),
		t.TotalAmount.String(), t.Fees.String(), formatDate(t.ActivityDate), nullableDate(t.ProcessDate),
		nullableDate(t.SettleDate), formatTimestamp(t.ExecutedAt), t.Description, t.State,
		string(t.ImportSource),
	}
}

// InsertTrade stores t and sets its ID and CreatedAt.
func (q *Queries) InsertTrade(ctx context.Context, t *models.Trade) error {
	now := time.Now().UTC()
	args := append(tradeArgs(t), formatTimestamp(now))
	res, err := q.q.ExecContext(ctx, `INSERT INTO trades (
		account_id, symbol, instrument_type, option_type, strike_price, expiration_date,
		trans_code, side, quantity, price, total_amount, fees, activity_date, process_date,
		settle_date, executed_at, description, state, import_source, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert trade %s %s: %w", t.Symbol, t.TransCode, err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert trade %s %s: %w", t.Symbol, t.TransCode, err)
	}
	t.CreatedAt = now
	return nil
}

// UpdateTrade rewrites every mutable column of an existing trade.
func (q *Queries) UpdateTrade(ctx context.Context, t *models.Trade) error {
	args := append(tradeArgs(t), t.ID)
	res, err := q.q.ExecContext(ctx, `UPDATE trades SET
		account_id = ?, symbol = ?, instrument_type = ?, option_type = ?, strike_price = ?,
		expiration_date = ?, trans_code = ?, side = ?, quantity = ?, price = ?, total_amount = ?,
		fees = ?, activity_date = ?, process_date = ?, settle_date = ?, executed_at = ?,
		description = ?, state = ?, import_source = ?
	WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update trade %d: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	t, err := scanTrade(q.q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades t WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// FindTradeByNaturalKey returns the stored trade sharing key, or ErrNotFound.
func (q *Queries) FindTradeByNaturalKey(ctx context.Context, key models.TradeKey) (*models.Trade, error) {
	t, err := scanTrade(q.q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades t
		WHERE t.account_id = ? AND t.symbol = ? AND t.activity_date = ? AND t.trans_code = ? AND t.total_amount = ?
		LIMIT 1`,
		key.AccountID, key.Symbol, formatDate(key.ActivityDate), key.TransCode, key.TotalAmount.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (q *Queries) DeleteTrade(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trade %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTrades returns trades in replay order: activity date, execution
// timestamp, then insertion order.
func (q *Queries) ListTrades(ctx context.Context, f TradeFilter) ([]models.Trade, error) {
	where, args := scopeClause("t", f.Scope)
	query := `SELECT ` + tradeColumns + ` FROM trades t WHERE ` + where
	if f.Symbol != "" {
		query += ` AND t.symbol = ?`
		args = append(args, f.Symbol)
	}
	query += ` ORDER BY t.activity_date, t.executed_at, t.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}
