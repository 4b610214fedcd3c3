// backend/src/parsers/fidelity/parser.go
package fidelity

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/parsers/tabular"
	"github.com/username/tradebook/backend/src/utils"
)

const (
	ColRunDate         = "Run Date"
	ColAccount         = "Account"
	ColAccountNumber   = "Account Number"
	ColAction          = "Action"
	ColSymbol          = "Symbol"
	ColDescription     = "Description"
	ColType            = "Type"
	ColQuantity        = "Quantity"
	ColPrice           = "Price ($)"
	ColCommission      = "Commission ($)"
	ColFees            = "Fees ($)"
	ColAccruedInterest = "Accrued Interest ($)"
	ColAmount          = "Amount ($)"
	ColSettlementDate  = "Settlement Date"
)

// RequiredColumns must be present in the header. Price, commission, fee and
// settlement columns are read when present.
var RequiredColumns = []string{
	ColRunDate, ColAction, ColSymbol, ColDescription, ColType, ColQuantity, ColAmount,
}

const (
	headerMarker = "Run Date"
	// A history row has 14 columns; anything with fewer than 10 delimiters is
	// preamble text or a truncated line.
	minDelimiters = 10
)

type FidelityParser struct{}

func NewParser() *FidelityParser {
	return &FidelityParser{}
}

// Prefilter drops blank lines, every line before the header and any later
// line with too few delimiters.
func Prefilter(text string) string {
	var kept []string
	headerFound := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		commas := strings.Count(line, ",")
		if !headerFound {
			if strings.Contains(line, headerMarker) && commas >= minDelimiters {
				headerFound = true
				kept = append(kept, line)
			}
			continue
		}
		if commas >= minDelimiters {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func (p *FidelityParser) Parse(file io.Reader) (*models.ParsedLedger, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read Fidelity export: %w", err)
	}
	table, err := tabular.Read(strings.NewReader(Prefilter(string(raw))), RequiredColumns)
	if err != nil {
		return nil, err
	}

	ledger := &models.ParsedLedger{Format: models.FormatB}
	for _, rec := range table.Records {
		row := models.ParsedRow{Line: rec.Line}
		switch {
		case rec.Err != nil:
			row.Err = rec.Err
		case utils.IsBlank(rec.Get(ColRunDate)) || utils.IsBlank(rec.Get(ColSymbol)):
			row.Skipped = true
		default:
			row.Trade, row.Err = parseRow(rec)
		}
		ledger.Rows = append(ledger.Rows, row)
	}
	return ledger, nil
}

func parseRow(rec tabular.Record) (*models.CanonicalTrade, error) {
	activityDate, err := utils.ParseDate(rec.Get(ColRunDate))
	if err != nil {
		return nil, fmt.Errorf("run date: %w", err)
	}
	settleDate, err := utils.ParseOptionalDate(rec.Get(ColSettlementDate))
	if err != nil {
		return nil, fmt.Errorf("settlement date: %w", err)
	}

	symbol := strings.ToUpper(rec.Get(ColSymbol))
	description := rec.Get(ColDescription)
	action := strings.ToUpper(rec.Get(ColAction))

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
	commission, err := utils.ParseMoney(rec.Get(ColCommission))
	if err != nil {
		return nil, fmt.Errorf("commission: %w", err)
	}
	fees, err := utils.ParseMoney(rec.Get(ColFees))
	if err != nil {
		return nil, fmt.Errorf("fees: %w", err)
	}

	transCode, side := MapAction(action)
	trade := &models.CanonicalTrade{
		Format:         models.FormatB,
		Symbol:         symbol,
		InstrumentType: models.InstrumentEquity,
		TransCode:      transCode,
		Side:           side,
		Quantity:       quantity.Abs(),
		Price:          price.Abs(),
		Amount:         amount,
		Fees:           commission.Abs().Add(fees.Abs()),
		ActivityDate:   activityDate,
		SettleDate:     settleDate,
		Description:    action + " - " + description,
	}

	// The encoded symbol wins over anything found in the description.
	if contract, ok := utils.DecodeOptionSymbol(symbol); ok {
		trade.Symbol = contract.Underlying
		contract.Apply(trade)
	} else if contract, ok := utils.ParseOptionDescription(description); ok {
		contract.Apply(trade)
	}
	return trade, nil
}

// MapAction derives the transaction code and side from the free-text action.
// Open and close wording is checked before plain bought/sold so option trades
// keep their BTO/STO/BTC/STC codes.
func MapAction(action string) (string, models.Side) {
	a := strings.ToUpper(action)
	switch {
	case strings.Contains(a, "DIVIDEND"):
		return "DIV", models.SideBuy
	case strings.Contains(a, "INTEREST"):
		return "INT", models.SideBuy
	case strings.Contains(a, "REINVESTMENT"):
		return "REINV", models.SideBuy
	case strings.Contains(a, "OPENING"):
		if strings.Contains(a, "BOUGHT") {
			return "BTO", models.SideBuy
		}
		return "STO", models.SideSell
	case strings.Contains(a, "CLOSING"):
		if strings.Contains(a, "BOUGHT") {
			return "BTC", models.SideBuy
		}
		return "STC", models.SideSell
	case strings.Contains(a, "YOU BOUGHT"), strings.Contains(a, "BUY"):
		return "BUY", models.SideBuy
	case strings.Contains(a, "YOU SOLD"), strings.Contains(a, "SELL"):
		return "SELL", models.SideSell
	}
	return "UNK", models.SideBuy
}
