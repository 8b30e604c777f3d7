// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/tradereport/backend/src/models"
)

// Parser normalizes one source format into canonical transactions. Rows that
// cannot be normalized are reported as diagnostics inside the result; a Parser
// only returns a non-nil error when the input as a whole is unreadable.
type Parser interface {
	Parse(file io.Reader) (*models.ParseResult, error)
}
