package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

const positionColumns = `p.id, p.account_id, p.symbol, p.instrument_type, p.option_type, p.strike_price,
	p.expiration_date, p.quantity, p.average_buy_price, p.current_price, p.current_value,
	p.day_change, p.last_price_update, p.created_at, p.updated_at`

func scanPosition(s rowScanner) (*models.Position, error) {
	var (
		p                                     models.Position
		instrumentType, optionType            string
		strike, expiration                    string
		currentPrice, currentValue, dayChange sql.NullString
		lastUpdate                            sql.NullString
		created, updated                      string
	)
	err := s.Scan(&p.ID, &p.AccountID, &p.Symbol, &instrumentType, &optionType, &strike,
		&expiration, &p.Quantity, &p.AverageCost, &currentPrice, &currentValue,
		&dayChange, &lastUpdate, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.InstrumentType = models.InstrumentType(instrumentType)
	p.OptionType = models.OptionType(optionType)

	if p.StrikePrice, err = parseNullableDecimal(sql.NullString{String: strike, Valid: true}); err != nil {
		return nil, fmt.Errorf("position %d strike_price: %w", p.ID, err)
	}
	if p.ExpirationDate, err = parseNullableDate(sql.NullString{String: expiration, Valid: true}); err != nil {
		return nil, fmt.Errorf("position %d expiration_date: %w", p.ID, err)
	}
	if p.CurrentPrice, err = parseNullableDecimal(currentPrice); err != nil {
		return nil, fmt.Errorf("position %d current_price: %w", p.ID, err)
	}
	if p.CurrentValue, err = parseNullableDecimal(currentValue); err != nil {
		return nil, fmt.Errorf("position %d current_value: %w", p.ID, err)
	}
	if p.DayChange, err = parseNullableDecimal(dayChange); err != nil {
		return nil, fmt.Errorf("position %d day_change: %w", p.ID, err)
	}
	if p.LastPriceUpdate, err = parseNullableTimestamp(lastUpdate); err != nil {
		return nil, fmt.Errorf("position %d last_price_update: %w", p.ID, err)
	}
	if p.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, fmt.Errorf("position %d created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, fmt.Errorf("position %d updated_at: %w", p.ID, err)
	}
	return &p, nil
}

// ListPositions returns positions in scope in a stable order.
func (q *Queries) ListPositions(ctx context.Context, scope models.Scope) ([]models.Position, error) {
	where, args := scopeClause("p", scope)
	rows, err := q.q.QueryContext(ctx, `SELECT `+positionColumns+` FROM positions p WHERE `+where+
		` ORDER BY p.account_id, p.symbol, p.instrument_type, p.expiration_date, p.strike_price, p.option_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

// DeletePositions removes every position in scope and reports how many rows
// were removed.
func (q *Queries) DeletePositions(ctx context.Context, scope models.Scope) (int64, error) {
	where, args := scopeClause("positions", scope)
	res, err := q.q.ExecContext(ctx, `DELETE FROM positions WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete positions: %w", err)
	}
	return res.RowsAffected()
}

// InsertPositions stores a batch of freshly reconstructed positions.
func (q *Queries) InsertPositions(ctx context.Context, positions []models.Position) error {
	now := formatTimestamp(time.Now())
	for i := range positions {
		p := &positions[i]
		strike := ""
		if p.StrikePrice.Valid {
			strike = p.StrikePrice.Decimal.String()
		}
		expiration := ""
		if p.ExpirationDate != nil {
			expiration = formatDate(*p.ExpirationDate)
		}
		res, err := q.q.ExecContext(ctx, `INSERT INTO positions (
			account_id, symbol, instrument_type, option_type, strike_price, expiration_date,
			quantity, average_buy_price, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.AccountID, p.Symbol, string(p.InstrumentType), string(p.OptionType), strike, expiration,
			p.Quantity.String(), p.AverageCost.String(), now, now)
		if err != nil {
			return fmt.Errorf("insert position %s: %w", p.Symbol, err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert position %s: %w", p.Symbol, err)
		}
	}
	return nil
}

// MarketUpdate carries live quote fields for one position.
type MarketUpdate struct {
	PositionID   int64
	CurrentPrice decimal.Decimal
	CurrentValue decimal.Decimal
	DayChange    decimal.NullDecimal
	At           time.Time
}

func (q *Queries) UpdatePositionMarket(ctx context.Context, u MarketUpdate) error {
	res, err := q.q.ExecContext(ctx, `UPDATE positions
		SET current_price = ?, current_value = ?, day_change = ?, last_price_update = ?, updated_at = ?
		WHERE id = ?`,
		u.CurrentPrice.String(), u.CurrentValue.String(), nullableDecimal(u.DayChange),
		nullableTimestamp(&u.At), formatTimestamp(u.At), u.PositionID)
	if err != nil {
		return fmt.Errorf("update market fields for position %d: %w", u.PositionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
