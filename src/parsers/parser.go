// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/tradebook/backend/src/models"
)

// Parser turns one brokerage export into canonical rows. Structural problems
// such as a missing column are returned as an error; problems with a single
// row are reported on that row.
type Parser interface {
	Parse(file io.Reader) (*models.ParsedLedger, error)
}
