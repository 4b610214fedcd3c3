package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/processors"
)

const robinhoodHeader = "Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount\n"

// aaplLedger buys 150 shares in two lots and sells 25.
const aaplLedger = robinhoodHeader +
	"01/15/2024,01/15/2024,01/17/2024,AAPL,Apple,BTO,100,150.00,\"($15,000.00)\"\n" +
	"01/20/2024,01/20/2024,01/22/2024,AAPL,Apple,BTO,50,160.00,\"($8,000.00)\"\n" +
	"02/01/2024,02/01/2024,02/05/2024,AAPL,Apple,STC,25,170.00,\"$4,250.00\"\n"

type fixture struct {
	db        *sql.DB
	store     *database.Store
	accounts  AccountService
	imports   ImportService
	trades    TradeService
	positions PositionService
}

func newFixture(t *testing.T, prices PriceService) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db)
	c := NewPositionCache(0)
	normalizer := processors.NewTradeNormalizer()
	return &fixture{
		db:        db,
		store:     store,
		accounts:  NewAccountService(store, c),
		imports:   NewImportService(store, normalizer, ImportOptions{}),
		trades:    NewTradeService(store, normalizer),
		positions: NewPositionService(store, processors.NewPositionReconstructor(), prices, c),
	}
}

func (f *fixture) account(t *testing.T, name string, provider models.Provider) *models.Account {
	t.Helper()
	a, err := f.accounts.CreateAccount(context.Background(), name, provider)
	require.NoError(t, err)
	return a
}

func ptr[T any](v T) *T { return &v }
