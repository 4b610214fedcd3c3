package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/services"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error) {
	args := m.Called(ctx, name, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) GetOrCreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error) {
	args := m.Called(ctx, name, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]models.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, id int64, in services.AccountUpdate) (*models.Account, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportLedger(ctx context.Context, req services.ImportRequest) (*services.ImportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportResult), args.Error(1)
}

func (m *MockImportService) ListImports(ctx context.Context, accountID int64) ([]models.ImportHistory, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImportHistory), args.Error(1)
}

type MockTradeService struct {
	mock.Mock
}

func (m *MockTradeService) CreateTrade(ctx context.Context, in services.TradeInput) (*models.Trade, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) UpdateTrade(ctx context.Context, id int64, in services.TradeUpdate) (*models.Trade, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) DeleteTrade(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTradeService) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) ListTrades(ctx context.Context, q services.TradeQuery) ([]models.Trade, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trade), args.Error(1)
}

type MockPositionService struct {
	mock.Mock
}

func (m *MockPositionService) RebuildPositions(ctx context.Context, accountID *int64) (*services.RebuildResult, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RebuildResult), args.Error(1)
}

func (m *MockPositionService) ListPositions(ctx context.Context, accountID *int64) ([]models.Position, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Position), args.Error(1)
}

func (m *MockPositionService) RefreshPrices(ctx context.Context, accountID *int64) (*services.PriceRefreshResult, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PriceRefreshResult), args.Error(1)
}
