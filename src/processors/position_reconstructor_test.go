package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradebook/backend/src/models"
)

var tradeSeq int64

func trade(symbol, code string, side models.Side, qty, price int64, date time.Time) models.Trade {
	tradeSeq++
	amount := decimal.NewFromInt(qty * price)
	if side == models.SideBuy {
		amount = amount.Neg()
	}
	return models.Trade{
		ID:             tradeSeq,
		AccountID:      1,
		Symbol:         symbol,
		InstrumentType: models.InstrumentEquity,
		TransCode:      code,
		Side:           side,
		Quantity:       decimal.NewFromInt(qty),
		Price:          decimal.NewFromInt(price),
		TotalAmount:    amount,
		ActivityDate:   date,
		ExecutedAt:     date,
	}
}

func option(t models.Trade, optType models.OptionType, strike int64, exp time.Time) models.Trade {
	t.InstrumentType = models.InstrumentOption
	t.OptionType = optType
	t.StrikePrice = decimal.NewNullDecimal(decimal.NewFromInt(strike))
	t.ExpirationDate = &exp
	return t
}

func d(m time.Month, day int) time.Time {
	return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC)
}

func TestReconstructAverageCostIsBuyOnly(t *testing.T) {
	trades := []models.Trade{
		trade("AAPL", "BTO", models.SideBuy, 100, 150, d(1, 1)),
		trade("AAPL", "BTO", models.SideBuy, 50, 160, d(1, 2)),
		trade("AAPL", "STC", models.SideSell, 25, 165, d(1, 3)),
	}

	res := NewPositionReconstructor().Reconstruct(trades)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, 3, res.TradesProcessed)
	assert.Equal(t, 0, res.Skipped)

	p := res.Positions[0]
	assert.Equal(t, "AAPL", p.Symbol)
	assert.True(t, decimal.NewFromInt(125).Equal(p.Quantity))
	assert.Equal(t, "153.33", p.AverageCost.StringFixed(2))
}

func TestReconstructDropsFlatPositions(t *testing.T) {
	trades := []models.Trade{
		trade("TSLA", "BTO", models.SideBuy, 10, 200, d(1, 1)),
		trade("TSLA", "STC", models.SideSell, 10, 220, d(1, 5)),
		trade("NVDA", "STO", models.SideSell, 3, 100, d(1, 6)),
	}

	res := NewPositionReconstructor().Reconstruct(trades)
	assert.Empty(t, res.Positions)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 3, res.TradesProcessed)
}

func TestReconstructOptionsByContract(t *testing.T) {
	exp := d(3, 15)
	trades := []models.Trade{
		option(trade("MSFT", "BTO", models.SideBuy, 5, 1000, d(1, 1)), models.OptionCall, 400, exp),
		option(trade("MSFT", "BTO", models.SideBuy, 1, 500, d(1, 1)), models.OptionCall, 420, exp),
		option(trade("MSFT", "STC", models.SideSell, 2, 1200, d(1, 2)), models.OptionCall, 400, exp),
		option(trade("MSFT", "BTO", models.SideBuy, 4, 300, d(1, 2)), models.OptionPut, 400, exp),
		trade("MSFT", "BUY", models.SideBuy, 10, 390, d(1, 3)),
	}

	res := NewPositionReconstructor().Reconstruct(trades)
	require.Len(t, res.Positions, 4, "strike, option type and equity are distinct identities")

	call400 := res.Positions[0]
	assert.Equal(t, models.InstrumentOption, call400.InstrumentType)
	assert.Equal(t, models.OptionCall, call400.OptionType)
	assert.True(t, call400.StrikePrice.Decimal.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, exp, *call400.ExpirationDate)
	assert.True(t, decimal.NewFromInt(3).Equal(call400.Quantity))
	assert.True(t, decimal.NewFromInt(1000).Equal(call400.AverageCost))

	assert.True(t, decimal.NewFromInt(420).Equal(res.Positions[1].StrikePrice.Decimal))
	assert.Equal(t, models.OptionPut, res.Positions[2].OptionType)
	assert.Equal(t, models.InstrumentEquity, res.Positions[3].InstrumentType)
	assert.False(t, res.Positions[3].StrikePrice.Valid)
}

func TestReconstructCashCodesNeverMoveQuantity(t *testing.T) {
	trades := []models.Trade{
		trade("KO", "BUY", models.SideBuy, 10, 60, d(1, 1)),
		trade("KO", "DIV", models.SideBuy, 5, 0, d(2, 1)),
		trade("KO", "REINV", models.SideBuy, 1, 61, d(2, 1)),
		trade("KO", "INT", models.SideSell, 50, 1, d(2, 2)),
	}

	res := NewPositionReconstructor().Reconstruct(trades)
	require.Len(t, res.Positions, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(res.Positions[0].Quantity))
	assert.True(t, decimal.NewFromInt(60).Equal(res.Positions[0].AverageCost))
}

func TestReconstructUnknownCodeUsesSide(t *testing.T) {
	trades := []models.Trade{
		trade("F", "UNK", models.SideBuy, 10, 12, d(1, 1)),
		trade("F", "OEXP", models.SideSell, 4, 0, d(1, 2)),
	}

	res := NewPositionReconstructor().Reconstruct(trades)
	require.Len(t, res.Positions, 1)
	assert.True(t, decimal.NewFromInt(6).Equal(res.Positions[0].Quantity))
}

func TestReconstructConservationAndIdempotence(t *testing.T) {
	trades := []models.Trade{
		trade("AAPL", "BUY", models.SideBuy, 7, 100, d(1, 1)),
		trade("AMD", "BUY", models.SideBuy, 3, 90, d(1, 1)),
		trade("AAPL", "SELL", models.SideSell, 2, 110, d(1, 2)),
		trade("AMD", "SELL", models.SideSell, 3, 95, d(1, 3)),
		trade("AAPL", "BUY", models.SideBuy, 1, 120, d(1, 4)),
	}

	r := NewPositionReconstructor()
	first := r.Reconstruct(trades)
	second := r.Reconstruct(trades)
	assert.Equal(t, first, second)

	sums := map[string]decimal.Decimal{}
	for _, tr := range trades {
		sums[tr.Symbol] = sums[tr.Symbol].Add(QuantityDelta(tr))
	}
	require.Len(t, first.Positions, 1)
	assert.True(t, sums["AAPL"].Equal(first.Positions[0].Quantity))
	assert.True(t, sums["AMD"].IsZero())
}

func TestReconstructEmptyLedger(t *testing.T) {
	res := NewPositionReconstructor().Reconstruct(nil)
	assert.Empty(t, res.Positions)
	assert.Zero(t, res.TradesProcessed)
}
