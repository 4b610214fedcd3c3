package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradebook/backend/src/models"
)

func importCSV(t *testing.T, f *fixture, accountID int64, content string, overwrite bool) (*ImportResult, error) {
	t.Helper()
	return f.imports.ImportLedger(context.Background(), ImportRequest{
		AccountID: accountID,
		Overwrite: overwrite,
		Filename:  "activity.csv",
		Content:   strings.NewReader(content),
	})
}

func TestImportLedgerInsertsTrades(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)

	res, err := importCSV(t, f, acct.ID, aaplLedger, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.ImportedCount)
	assert.Equal(t, 0, res.DuplicatesCount)
	assert.Equal(t, 0, res.ErrorsCount)
	assert.NotEmpty(t, res.ImportID)
	assert.Equal(t, "Imported 3 trades, 0 duplicates, 0 rows skipped (empty data)", res.Message)

	trades, err := f.trades.ListTrades(context.Background(), TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.True(t, trades[0].TotalAmount.Equal(decimal.NewFromInt(-15000)), "buys are negative")
	assert.True(t, trades[2].TotalAmount.Equal(decimal.NewFromInt(4250)), "sells are positive")
	for _, tr := range trades {
		assert.Equal(t, models.SourceCSVImport, tr.ImportSource)
	}
}

func TestImportLedgerTwiceReportsDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)

	_, err := importCSV(t, f, acct.ID, aaplLedger, false)
	require.NoError(t, err)
	res, err := importCSV(t, f, acct.ID, aaplLedger, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ImportedCount)
	assert.Equal(t, 3, res.DuplicatesCount)

	trades, err := f.trades.ListTrades(context.Background(), TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)
	assert.Len(t, trades, 3)
}

func TestImportLedgerDuplicateWithinFile(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	row := "01/15/2024,01/15/2024,01/17/2024,AAPL,Apple,BTO,100,150.00,($15000.00)\n"

	res, err := importCSV(t, f, acct.ID, robinhoodHeader+row+row, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, 1, res.DuplicatesCount)
}

func TestImportLedgerOverwriteUpdatesInPlace(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	ctx := context.Background()

	_, err := importCSV(t, f, acct.ID, aaplLedger, false)
	require.NoError(t, err)
	before, err := f.trades.ListTrades(ctx, TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)

	edited := strings.Replace(aaplLedger, "Apple,BTO,100", "Apple Inc,BTO,100", 1)
	res, err := importCSV(t, f, acct.ID, edited, true)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedCount)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.Contains(t, res.Message, "3 updated")

	after, err := f.trades.ListTrades(ctx, TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "Apple Inc", after[0].Description)
}

func TestImportLedgerCountsSkippedRows(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	in := aaplLedger + "01/16/2024,01/16/2024,01/16/2024,,ACH Deposit,ACH,,,$500.00\n"

	res, err := importCSV(t, f, acct.ID, in, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SkippedRows)
	assert.Contains(t, res.Message, "1 rows skipped (empty data)")
}

func TestImportLedgerToleratesFewErrors(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	in := aaplLedger + "02/02/2024,02/02/2024,02/06/2024,AAPL,Apple,BTO,abc,1.00,($1.00)\n"

	res, err := importCSV(t, f, acct.ID, in, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.ImportedCount)
	assert.Equal(t, 1, res.ErrorsCount)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Row 5: "), res.Errors[0])
}

func TestImportLedgerRollsBackOnTooManyErrors(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	in := robinhoodHeader +
		"01/15/2024,01/15/2024,01/17/2024,AAPL,Apple,BTO,100,150.00,($15000.00)\n" +
		"bad-date,01/15/2024,01/17/2024,AAPL,Apple,BTO,1,1.00,($1.00)\n"

	res, err := importCSV(t, f, acct.ID, in, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyErrors))
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "Too many errors in CSV. First few errors: Row 3: "), res.Message)
	assert.Equal(t, 0, res.ImportedCount)

	trades, err := f.trades.ListTrades(context.Background(), TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)
	assert.Empty(t, trades)

	history, err := f.imports.ListImports(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ImportStatusFailed, history[0].Status)
	assert.Equal(t, 1, history[0].RecordsErrors)
}

func TestImportLedgerMissingColumns(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Main", models.ProviderRobinhood)
	in := "Activity Date,Instrument,Trans Code\n01/15/2024,AAPL,BTO\n"

	res, err := importCSV(t, f, acct.ID, in, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "Missing required columns: "), res.Message)
	assert.Contains(t, res.Message, "Amount")
}

func TestImportLedgerUnknownAccount(t *testing.T) {
	f := newFixture(t, nil)

	res, err := importCSV(t, f, 42, aaplLedger, false)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
	assert.False(t, res.Success)
}

func TestImportLedgerNeedsFormatForManualAccount(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Manual", models.ProviderManual)

	_, err := importCSV(t, f, acct.ID, aaplLedger, false)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	res, err := f.imports.ImportLedger(context.Background(), ImportRequest{
		AccountID: acct.ID,
		Format:    models.FormatA,
		Content:   strings.NewReader(aaplLedger),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ImportedCount)
}

func TestImportLedgerFidelity(t *testing.T) {
	f := newFixture(t, nil)
	acct := f.account(t, "Brokerage", models.ProviderFidelity)
	in := "\n\nBrokerage\nRun Date,Action,Symbol,Description,Type,Quantity,Price ($),Commission ($),Fees ($),Accrued Interest ($),Amount ($),Settlement Date\n" +
		"03/01/2024,YOU BOUGHT APPLE INC (AAPL) (Cash),AAPL,APPLE INC,Cash,10,180.00,,,,-1800.00,03/04/2024\n" +
		"03/05/2024,YOU BOUGHT OPENING TRANSACTION PUT (TGT) TARGET CORP JUN 20 25 $90 (100 SHS) (Cash),-TGT250620P90,PUT (TGT) TARGET CORP JUN 20 25 $90,Cash,1,2.50,0.65,0.04,,-250.69,03/06/2024\n" +
		"\n\"The data and information in this spreadsheet is provided to you solely for your use\"\n"

	res, err := importCSV(t, f, acct.ID, in, false)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, 2, res.ImportedCount)

	trades, err := f.trades.ListTrades(context.Background(), TradeQuery{AccountID: &acct.ID})
	require.NoError(t, err)
	require.Len(t, trades, 2)
	opt := trades[1]
	assert.Equal(t, "TGT", opt.Symbol)
	assert.Equal(t, models.InstrumentOption, opt.InstrumentType)
	assert.Equal(t, "BTO", opt.TransCode)
	assert.True(t, opt.Fees.Equal(decimal.RequireFromString("0.69")))
}

func TestTooManyErrors(t *testing.T) {
	assert.False(t, tooManyErrors(0, 0, 0.5))
	assert.False(t, tooManyErrors(1, 3, 0.5))
	assert.True(t, tooManyErrors(1, 2, 0.5))
	assert.True(t, tooManyErrors(2, 2, 0.5))
}
