package processors

import (
	"github.com/username/tradebook/backend/src/models"
)

// TradeNormalizer turns a parsed row into a ledger trade for one account.
type TradeNormalizer interface {
	Normalize(accountID int64, c models.CanonicalTrade, source models.ImportSource) (models.Trade, error)
}

// PositionReconstructor replays a trade ledger into open positions.
type PositionReconstructor interface {
	Reconstruct(trades []models.Trade) ReconstructionResult
}
