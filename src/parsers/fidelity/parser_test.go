package fidelity

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

const header = "Run Date,Account,Account Number,Action,Symbol,Description,Type,Quantity,Price ($),Commission ($),Fees ($),Accrued Interest ($),Amount ($),Settlement Date"

func export(lines ...string) string {
	preamble := "\n\nBrokerage\nAccount History for Individual\n\n"
	footer := "\n\"The data and information in this spreadsheet is provided to you solely for your use.\"\nDate downloaded 06/30/2025\n"
	return preamble + header + "\n" + strings.Join(lines, "\n") + footer
}

func TestPrefilter(t *testing.T) {
	in := export("06/02/2025,Individual,X1,YOU BOUGHT,AAPL,APPLE INC,Cash,10,200,,,,-2000,06/03/2025",
		"short,line",
		"",
		"06/03/2025,Individual,X1,YOU SOLD,AAPL,APPLE INC,Cash,-5,210,,,,1050,06/04/2025")

	out := Prefilter(in)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, header, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "06/02/2025"))
	assert.True(t, strings.HasPrefix(lines[2], "06/03/2025"))
}

func TestPrefilterWithoutHeader(t *testing.T) {
	assert.Equal(t, "", Prefilter("no header here\n1,2,3,4,5,6,7,8,9,10,11,12\n"))
}

func TestParseOptionSymbol(t *testing.T) {
	in := export("05/01/2025,Individual,X1,YOU SOLD OPENING TRANSACTION PUT (TGT) TARGET CORP JUN 20 25 $90 (100 SHS) (Cash),-TGT250620P90,PUT (TGT) TARGET CORP JUN 20 25 $90 (100 SHS),Cash,-1,2.15,0.65,0.04,,214.31,05/02/2025")

	ledger, err := NewParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 1)
	require.NoError(t, ledger.Rows[0].Err)

	tr := ledger.Rows[0].Trade
	assert.Equal(t, "TGT", tr.Symbol)
	assert.Equal(t, models.InstrumentOption, tr.InstrumentType)
	assert.Equal(t, models.OptionPut, tr.OptionType)
	assert.True(t, tr.StrikePrice.Decimal.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), *tr.ExpirationDate)
	assert.Equal(t, "STO", tr.TransCode)
	assert.Equal(t, models.SideSell, tr.Side)
	assert.True(t, decimal.NewFromInt(1).Equal(tr.Quantity))
	assert.Equal(t, "0.69", tr.Fees.String())
	assert.True(t, strings.HasPrefix(tr.Description, "YOU SOLD OPENING TRANSACTION"))
	assert.Contains(t, tr.Description, " - PUT (TGT)")
}

func TestParseEquityAndCashRows(t *testing.T) {
	in := export(
		"06/02/2025,Individual,X1,YOU BOUGHT APPLE INC (AAPL) (Cash),AAPL,APPLE INC,Cash,\"1,000\",200,,,,\"-200,000\",06/03/2025",
		"06/05/2025,Individual,X1,DIVIDEND RECEIVED APPLE INC (AAPL) (Cash),AAPL,APPLE INC,Cash,0,,,,,25.00,",
		"06/06/2025,Individual,X1,TRANSFERRED FROM VS Z12-345678-1 (Cash),,No Description,Cash,0,,,,,500,",
	)

	ledger, err := NewParser().Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 3)

	buy := ledger.Rows[0].Trade
	require.NotNil(t, buy)
	assert.Equal(t, "BUY", buy.TransCode)
	assert.Equal(t, models.SideBuy, buy.Side)
	assert.True(t, decimal.NewFromInt(1000).Equal(buy.Quantity))
	assert.Equal(t, models.InstrumentEquity, buy.InstrumentType)
	require.NotNil(t, buy.SettleDate)

	div := ledger.Rows[1].Trade
	require.NotNil(t, div)
	assert.Equal(t, "DIV", div.TransCode)
	assert.Nil(t, div.SettleDate)

	assert.True(t, ledger.Rows[2].Skipped, "rows without a symbol are skipped")
}

func TestParseMissingColumns(t *testing.T) {
	in := "Run Date,Account,Account Number,Action,Symbol,Description,Type,Quantity,Price ($),Commission ($),Fees ($)\n" +
		"06/02/2025,Individual,X1,YOU BOUGHT,AAPL,APPLE INC,Cash,10,200,,\n"

	_, err := NewParser().Parse(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tabular.ErrMissingColumns))
	assert.Contains(t, err.Error(), "Amount ($)")
}

func TestMapAction(t *testing.T) {
	tests := []struct {
		action string
		code   string
		side   models.Side
	}{
		{"YOU BOUGHT APPLE INC", "BUY", models.SideBuy},
		{"YOU SOLD APPLE INC", "SELL", models.SideSell},
		{"YOU BOUGHT OPENING TRANSACTION CALL", "BTO", models.SideBuy},
		{"YOU SOLD OPENING TRANSACTION PUT", "STO", models.SideSell},
		{"YOU BOUGHT CLOSING TRANSACTION PUT", "BTC", models.SideBuy},
		{"YOU SOLD CLOSING TRANSACTION CALL", "STC", models.SideSell},
		{"DIVIDEND RECEIVED", "DIV", models.SideBuy},
		{"INTEREST EARNED", "INT", models.SideBuy},
		{"REINVESTMENT", "REINV", models.SideBuy},
		{"EXPIRED PUT", "UNK", models.SideBuy},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			code, side := MapAction(tt.action)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.side, side)
		})
	}
}
