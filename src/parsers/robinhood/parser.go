// backend/src/parsers/robinhood/parser.go
package robinhood

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/parsers/tabular"
	"github.com/username/tradebook/backend/src/utils"
)

const (
	ColActivityDate = "Activity Date"
	ColProcessDate  = "Process Date"
	ColSettleDate   = "Settle Date"
	ColInstrument   = "Instrument"
	ColDescription  = "Description"
	ColTransCode    = "Trans Code"
	ColQuantity     = "Quantity"
	ColPrice        = "Price"
	ColAmount       = "Amount"
)

// RequiredColumns is the fixed header of a Robinhood activity export.
var RequiredColumns = []string{
	ColActivityDate, ColProcessDate, ColSettleDate, ColInstrument, ColDescription,
	ColTransCode, ColQuantity, ColPrice, ColAmount,
}

type RobinhoodParser struct{}

func NewParser() *RobinhoodParser {
	return &RobinhoodParser{}
}

func (p *RobinhoodParser) Parse(file io.Reader) (*models.ParsedLedger, error) {
	table, err := tabular.Read(file, RequiredColumns)
	if err != nil {
		return nil, err
	}

	ledger := &models.ParsedLedger{Format: models.FormatA}
	for _, rec := range table.Records {
		row := models.ParsedRow{Line: rec.Line}
		switch {
		case rec.Err != nil:
			row.Err = rec.Err
		// The export ends with a disclaimer line and carries cash rows with no
		// instrument; neither is a trade.
		case utils.IsBlank(rec.Get(ColActivityDate)) || utils.IsBlank(rec.Get(ColInstrument)):
			row.Skipped = true
		default:
			row.Trade, row.Err = parseRow(rec)
		}
		ledger.Rows = append(ledger.Rows, row)
	}
	return ledger, nil
}

func parseRow(rec tabular.Record) (*models.CanonicalTrade, error) {
	activityDate, err := utils.ParseDate(rec.Get(ColActivityDate))
	if err != nil {
		return nil, fmt.Errorf("activity date: %w", err)
	}
	processDate, err := utils.ParseOptionalDate(rec.Get(ColProcessDate))
	if err != nil {
		return nil, fmt.Errorf("process date: %w", err)
	}
	settleDate, err := utils.ParseOptionalDate(rec.Get(ColSettleDate))
	if err != nil {
		return nil, fmt.Errorf("settle date: %w", err)
	}

	quantity, err := utils.ParseQuantity(rec.Get(ColQuantity))
	if err != nil {
		return nil, err
	}
	price, err := utils.ParseMoney(rec.Get(ColPrice))
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	amount, err := utils.ParseMoney(rec.Get(ColAmount))
	if err != nil {
		return nil, err
	}

	transCode := strings.ToUpper(rec.Get(ColTransCode))
	description := rec.Get(ColDescription)

	trade := &models.CanonicalTrade{
		Format:         models.FormatA,
		Symbol:         strings.ToUpper(rec.Get(ColInstrument)),
		InstrumentType: models.InstrumentEquity,
		TransCode:      transCode,
		Side:           DetermineSide(transCode, amount),
		Quantity:       quantity.Abs(),
		Price:          price.Abs(),
		Amount:         amount,
		Fees:           decimal.Zero,
		ActivityDate:   activityDate,
		ProcessDate:    processDate,
		SettleDate:     settleDate,
		Description:    description,
	}
	if contract, ok := utils.ParseOptionDescription(description); ok {
		contract.Apply(trade)
	}
	return trade, nil
}

// DetermineSide maps the transaction code through the buy and sell tables and
// falls back to the sign of the amount for anything else.
func DetermineSide(transCode string, amount decimal.Decimal) models.Side {
	switch {
	case models.IsBuyCode(transCode):
		return models.SideBuy
	case models.IsSellCode(transCode):
		return models.SideSell
	case amount.IsNegative():
		return models.SideBuy
	default:
		return models.SideSell
	}
}
