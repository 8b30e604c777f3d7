// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/tradereport/backend/src/parsers/degiro"
	"github.com/username/tradereport/backend/src/parsers/ibkr"
	"github.com/username/tradereport/backend/src/parsers/zero"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case zero.Source:
		return zero.NewParser(), nil
	case degiro.Source:
		return degiro.NewParser(), nil
	case ibkr.Source:
		return ibkr.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

// Sources lists the supported source format identifiers.
func Sources() []string {
	return []string{zero.Source, degiro.Source, ibkr.Source}
}
