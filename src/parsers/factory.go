// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/parsers/fidelity"
	"github.com/username/tradebook/backend/src/parsers/robinhood"
)

func GetParser(format models.BrokerageFormat) (Parser, error) {
	switch format {
	case models.FormatA:
		return robinhood.NewParser(), nil
	case models.FormatB:
		return fidelity.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
