package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
)

// ReconstructionResult is the open-position set derived from a ledger.
type ReconstructionResult struct {
	Positions []models.Position
	// Skipped counts identities that netted to zero or below.
	Skipped         int
	TradesProcessed int
}

type PositionReconstructorImpl struct{}

func NewPositionReconstructor() *PositionReconstructorImpl {
	return &PositionReconstructorImpl{}
}

type runningPosition struct {
	first      models.Trade
	quantity   decimal.Decimal
	boughtQty  decimal.Decimal
	boughtCost decimal.Decimal
}

// Reconstruct replays trades, which must already be in chronological order,
// and returns one position per instrument identity whose net quantity is
// positive. Average cost is cumulative buy cost over cumulative bought
// quantity; sells do not reduce cost basis. Output follows the order in which
// identities first appear.
func (r *PositionReconstructorImpl) Reconstruct(trades []models.Trade) ReconstructionResult {
	var order []models.InstrumentIdentity
	running := make(map[models.InstrumentIdentity]*runningPosition)

	for _, t := range trades {
		id := t.Identity()
		rp, ok := running[id]
		if !ok {
			rp = &runningPosition{first: t}
			running[id] = rp
			order = append(order, id)
		}

		delta := QuantityDelta(t)
		rp.quantity = rp.quantity.Add(delta)
		if delta.IsPositive() {
			rp.boughtQty = rp.boughtQty.Add(delta)
			rp.boughtCost = rp.boughtCost.Add(t.TotalAmount.Abs())
		}
	}

	result := ReconstructionResult{TradesProcessed: len(trades)}
	for _, id := range order {
		rp := running[id]
		if !rp.quantity.IsPositive() {
			result.Skipped++
			continue
		}

		avgCost := decimal.Zero
		if rp.boughtQty.IsPositive() {
			avgCost = rp.boughtCost.Div(rp.boughtQty)
		}
		p := models.Position{
			AccountID:      id.AccountID,
			Symbol:         id.Symbol,
			InstrumentType: id.InstrumentType,
			Quantity:       rp.quantity,
			AverageCost:    avgCost,
		}
		if id.InstrumentType == models.InstrumentOption {
			p.OptionType = rp.first.OptionType
			p.StrikePrice = rp.first.StrikePrice
			p.ExpirationDate = rp.first.ExpirationDate
		}
		result.Positions = append(result.Positions, p)
	}
	return result
}

// QuantityDelta is the signed change a trade makes to the held quantity.
// Cash pseudo-codes contribute zero.
func QuantityDelta(t models.Trade) decimal.Decimal {
	switch models.QuantitySign(t.TransCode, t.Side) {
	case 1:
		return t.Quantity.Abs()
	case -1:
		return t.Quantity.Abs().Neg()
	}
	return decimal.Zero
}
