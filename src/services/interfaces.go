package services

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

// ImportRequest describes one ledger file to import into an account.
type ImportRequest struct {
	AccountID int64
	// Format overrides the layout implied by the account provider.
	Format    models.BrokerageFormat
	Overwrite bool
	Filename  string
	Content   io.Reader
}

// ImportResult is returned for every import attempt, successful or not.
type ImportResult struct {
	Success         bool     `json:"success"`
	ImportID        string   `json:"import_id,omitempty"`
	ImportedCount   int      `json:"imported_count"`
	DuplicatesCount int      `json:"duplicates_count"`
	UpdatedCount    int      `json:"updated_count"`
	ErrorsCount     int      `json:"errors_count"`
	Errors          []string `json:"errors"`
	SkippedRows     int      `json:"skipped_rows"`
	Message         string   `json:"message,omitempty"`
}

// RebuildResult reports one position reconstruction run.
type RebuildResult struct {
	Success              bool   `json:"success"`
	CreatedPositions     int    `json:"created_positions"`
	SkippedPositions     int    `json:"skipped_positions"`
	TotalTradesProcessed int    `json:"total_trades_processed"`
	DeletedPositions     int64  `json:"deleted_positions"`
	Message              string `json:"message,omitempty"`
}

type PriceRefreshResult struct {
	Success     bool     `json:"success"`
	Updated     int      `json:"updated"`
	Unavailable []string `json:"unavailable"`
}

// TradeInput is a manually entered trade. Dates use YYYY-MM-DD and
// ExecutedTime HH:MM.
type TradeInput struct {
	AccountID      int64                 `json:"account_id"`
	Symbol         string                `json:"symbol"`
	InstrumentType models.InstrumentType `json:"instrument_type"`
	OptionType     models.OptionType     `json:"option_type"`
	StrikePrice    decimal.NullDecimal   `json:"strike_price"`
	ExpirationDate string                `json:"expiration_date"`
	TransCode      string                `json:"trans_code"`
	Side           models.Side           `json:"side"`
	Quantity       decimal.Decimal       `json:"quantity"`
	Price          decimal.Decimal       `json:"price"`
	Fees           decimal.Decimal       `json:"fees"`
	ActivityDate   string                `json:"activity_date"`
	ExecutedTime   string                `json:"executed_time"`
	ProcessDate    string                `json:"process_date"`
	SettleDate     string                `json:"settle_date"`
	Description    string                `json:"description"`
}

// TradeUpdate patches a stored trade; nil fields are left unchanged.
type TradeUpdate struct {
	Symbol         *string                `json:"symbol"`
	InstrumentType *models.InstrumentType `json:"instrument_type"`
	OptionType     *models.OptionType     `json:"option_type"`
	StrikePrice    *decimal.Decimal       `json:"strike_price"`
	ExpirationDate *string                `json:"expiration_date"`
	TransCode      *string                `json:"trans_code"`
	Side           *models.Side           `json:"side"`
	Quantity       *decimal.Decimal       `json:"quantity"`
	Price          *decimal.Decimal       `json:"price"`
	Fees           *decimal.Decimal       `json:"fees"`
	ActivityDate   *string                `json:"activity_date"`
	ExecutedTime   *string                `json:"executed_time"`
	Description    *string                `json:"description"`
}

type TradeQuery struct {
	AccountID *int64
	Symbol    string
	Limit     int
}

type AccountUpdate struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// PriceInfo is one quote. Status is "OK" when Price is usable.
type PriceInfo struct {
	Status   string
	Price    decimal.Decimal
	Change   decimal.NullDecimal
	Currency string
}

type ImportService interface {
	ImportLedger(ctx context.Context, req ImportRequest) (*ImportResult, error)
	ListImports(ctx context.Context, accountID int64) ([]models.ImportHistory, error)
}

type PositionService interface {
	RebuildPositions(ctx context.Context, accountID *int64) (*RebuildResult, error)
	ListPositions(ctx context.Context, accountID *int64) ([]models.Position, error)
	RefreshPrices(ctx context.Context, accountID *int64) (*PriceRefreshResult, error)
}

type TradeService interface {
	CreateTrade(ctx context.Context, in TradeInput) (*models.Trade, error)
	UpdateTrade(ctx context.Context, id int64, in TradeUpdate) (*models.Trade, error)
	DeleteTrade(ctx context.Context, id int64) error
	GetTrade(ctx context.Context, id int64) (*models.Trade, error)
	ListTrades(ctx context.Context, q TradeQuery) ([]models.Trade, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error)
	GetOrCreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id int64, in AccountUpdate) (*models.Account, error)
}

type PriceService interface {
	GetCurrentPrices(ctx context.Context, symbols []string) (map[string]PriceInfo, error)
}
