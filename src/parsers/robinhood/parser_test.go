package robinhood

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/parsers/tabular"
)

const header = "Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount\n"

func TestParseEquityBuy(t *testing.T) {
	in := header + "01/15/2024,01/16/2024,01/17/2024,AAPL,AAPL,BTO,100,150.00,$15000.00\n"

	ledger, err := NewParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 1)

	row := ledger.Rows[0]
	require.NoError(t, row.Err)
	require.NotNil(t, row.Trade)
	assert.Equal(t, 2, row.Line)

	tr := row.Trade
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, models.InstrumentEquity, tr.InstrumentType)
	assert.Equal(t, models.SideBuy, tr.Side)
	assert.Equal(t, "BTO", tr.TransCode)
	assert.True(t, decimal.NewFromInt(100).Equal(tr.Quantity))
	assert.True(t, decimal.NewFromInt(150).Equal(tr.Price))
	assert.True(t, decimal.NewFromInt(15000).Equal(tr.Amount), "raw amount is kept as found")
	assert.True(t, tr.Fees.IsZero())
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), tr.ActivityDate)
	require.NotNil(t, tr.SettleDate)
	assert.Equal(t, 17, tr.SettleDate.Day())
}

func TestParseOptionAndFormatting(t *testing.T) {
	in := header +
		`2/1/2024,2/1/2024,2/2/2024,msft,MSFT 3/15/2024 Call $400.00,STC,2,$12.50,"$2,500.00"` + "\n" +
		`2/3/2024,2/3/2024,2/5/2024,TSLA,Tesla,Buy,10S,$200.00,"($2,000.00)"` + "\n"

	ledger, err := NewParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 2)

	opt := ledger.Rows[0].Trade
	require.NotNil(t, opt)
	assert.Equal(t, "MSFT", opt.Symbol)
	assert.Equal(t, models.InstrumentOption, opt.InstrumentType)
	assert.Equal(t, models.OptionCall, opt.OptionType)
	assert.True(t, opt.StrikePrice.Decimal.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *opt.ExpirationDate)
	assert.Equal(t, models.SideSell, opt.Side)
	assert.True(t, decimal.NewFromInt(2500).Equal(opt.Amount))

	eq := ledger.Rows[1].Trade
	require.NotNil(t, eq)
	assert.Equal(t, "BUY", eq.TransCode)
	assert.Equal(t, models.SideBuy, eq.Side)
	assert.True(t, decimal.NewFromInt(10).Equal(eq.Quantity))
	assert.True(t, decimal.NewFromInt(-2000).Equal(eq.Amount))
}

func TestParseSkipsAndErrors(t *testing.T) {
	in := header +
		"01/15/2024,01/15/2024,01/17/2024,,ACH Deposit,ACH,,,$500.00\n" +
		"not-a-date,01/15/2024,01/17/2024,AAPL,AAPL,BTO,1,1,$1\n" +
		"01/15/2024,01/15/2024,01/17/2024,AAPL,AAPL,BTO,abc,1,$1\n" +
		"\"The data provided is for informational purposes only.\"\n"

	ledger, err := NewParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 4)

	assert.True(t, ledger.Rows[0].Skipped)
	assert.Error(t, ledger.Rows[1].Err)
	assert.Equal(t, 3, ledger.Rows[1].Line)
	assert.Contains(t, ledger.Rows[2].Err.Error(), "invalid quantity")
	assert.True(t, ledger.Rows[3].Skipped, "disclaimer line has no instrument")
}

func TestParseMissingAmountColumn(t *testing.T) {
	in := "Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price\n" +
		"01/15/2024,01/16/2024,01/17/2024,AAPL,AAPL,BTO,100,150.00\n"

	_, err := NewParser().Parse(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tabular.ErrMissingColumns))
	assert.Contains(t, err.Error(), "Amount")
}

func TestDetermineSide(t *testing.T) {
	assert.Equal(t, models.SideBuy, DetermineSide("BTC", decimal.NewFromInt(100)))
	assert.Equal(t, models.SideSell, DetermineSide("STO", decimal.NewFromInt(-100)))
	assert.Equal(t, models.SideBuy, DetermineSide("CDIV", decimal.NewFromInt(-1)))
	assert.Equal(t, models.SideSell, DetermineSide("CDIV", decimal.NewFromInt(1)))
}
