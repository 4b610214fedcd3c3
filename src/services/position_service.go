package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/processors"
)

type positionServiceImpl struct {
	store         *database.Store
	reconstructor processors.PositionReconstructor
	prices        PriceService
	cache         *cache.Cache
}

// NewPositionService wires position reconstruction, listing and valuation.
// prices may be nil, in which case RefreshPrices always fails.
func NewPositionService(store *database.Store, reconstructor processors.PositionReconstructor, prices PriceService, c *cache.Cache) PositionService {
	return &positionServiceImpl{store: store, reconstructor: reconstructor, prices: prices, cache: c}
}

// RebuildPositions replaces the stored positions of the scope with a fresh
// replay of its trades. Delete and insert share one transaction so readers
// never observe a half-built set.
func (s *positionServiceImpl) RebuildPositions(ctx context.Context, accountID *int64) (*RebuildResult, error) {
	startTime := time.Now()
	log := logger.FromContext(ctx)
	log.Info("RebuildPositions START", "accountID", accountID)

	if accountID != nil {
		if err := s.ensureAccount(ctx, *accountID); err != nil {
			return &RebuildResult{Success: false, Message: "Account not found"}, err
		}
	}
	scope := models.Scope{AccountID: accountID}

	var (
		outcome processors.ReconstructionResult
		deleted int64
	)
	err := s.store.WithTx(ctx, func(q *database.Queries) error {
		trades, err := q.ListTrades(ctx, database.TradeFilter{Scope: scope})
		if err != nil {
			return err
		}
		if deleted, err = q.DeletePositions(ctx, scope); err != nil {
			return err
		}
		outcome = s.reconstructor.Reconstruct(trades)
		return q.InsertPositions(ctx, outcome.Positions)
	})
	if err != nil {
		log.Error("RebuildPositions END: rolled back", "duration", time.Since(startTime), "error", err)
		return &RebuildResult{Success: false, Message: fmt.Sprintf("Error rebuilding positions: %v", err)},
			fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	invalidatePositions(s.cache, accountID)

	log.Info("RebuildPositions END", "duration", time.Since(startTime),
		"created", len(outcome.Positions), "skipped", outcome.Skipped, "trades", outcome.TradesProcessed)
	return &RebuildResult{
		Success:              true,
		CreatedPositions:     len(outcome.Positions),
		SkippedPositions:     outcome.Skipped,
		TotalTradesProcessed: outcome.TradesProcessed,
		DeletedPositions:     deleted,
		Message: fmt.Sprintf("Rebuilt %d positions from %d trades",
			len(outcome.Positions), outcome.TradesProcessed),
	}, nil
}

func (s *positionServiceImpl) ListPositions(ctx context.Context, accountID *int64) ([]models.Position, error) {
	cacheKey := positionsCacheKey(accountID)
	if s.cache != nil {
		if cached, found := s.cache.Get(cacheKey); found {
			if positions, ok := cached.([]models.Position); ok {
				logger.L.Debug("Cache hit for positions", "key", cacheKey)
				return append([]models.Position(nil), positions...), nil
			}
		}
	}

	if accountID != nil {
		if err := s.ensureAccount(ctx, *accountID); err != nil {
			return nil, err
		}
	}
	positions, err := s.store.ListPositions(ctx, models.Scope{AccountID: accountID})
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	if positions == nil {
		positions = []models.Position{}
	}
	if s.cache != nil {
		s.cache.Set(cacheKey, positions, cache.DefaultExpiration)
	}
	return append([]models.Position(nil), positions...), nil
}

// RefreshPrices updates market fields of equity positions from live quotes.
// Option positions are left alone since quotes cover listed symbols only.
func (s *positionServiceImpl) RefreshPrices(ctx context.Context, accountID *int64) (*PriceRefreshResult, error) {
	if s.prices == nil {
		return &PriceRefreshResult{Unavailable: []string{}}, ErrPricingUnavailable
	}
	if accountID != nil {
		if err := s.ensureAccount(ctx, *accountID); err != nil {
			return &PriceRefreshResult{Unavailable: []string{}}, err
		}
	}
	positions, err := s.store.ListPositions(ctx, models.Scope{AccountID: accountID})
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, p := range positions {
		if p.InstrumentType == models.InstrumentEquity && !seen[p.Symbol] {
			seen[p.Symbol] = true
			symbols = append(symbols, p.Symbol)
		}
	}
	result := &PriceRefreshResult{Unavailable: []string{}}
	if len(symbols) == 0 {
		result.Success = true
		return result, nil
	}

	quotes, err := s.prices.GetCurrentPrices(ctx, symbols)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
	}

	now := time.Now().UTC()
	missing := make(map[string]bool)
	err = s.store.WithTx(ctx, func(q *database.Queries) error {
		for _, p := range positions {
			if p.InstrumentType != models.InstrumentEquity {
				continue
			}
			quote, ok := quotes[p.Symbol]
			if !ok || quote.Status != PriceStatusOK {
				missing[p.Symbol] = true
				continue
			}
			update := database.MarketUpdate{
				PositionID:   p.ID,
				CurrentPrice: quote.Price,
				CurrentValue: quote.Price.Mul(p.Quantity),
				At:           now,
			}
			if quote.Change.Valid {
				update.DayChange.Valid = true
				update.DayChange.Decimal = quote.Change.Decimal.Mul(p.Quantity)
			}
			if err := q.UpdatePositionMarket(ctx, update); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return &PriceRefreshResult{Unavailable: []string{}}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	invalidatePositions(s.cache, accountID)

	for sym := range missing {
		result.Unavailable = append(result.Unavailable, sym)
	}
	sort.Strings(result.Unavailable)
	result.Success = true
	return result, nil
}

func (s *positionServiceImpl) ensureAccount(ctx context.Context, id int64) error {
	_, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}
