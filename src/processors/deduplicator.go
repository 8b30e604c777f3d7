// backend/src/processors/deduplicator.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/utils"
)

// deduplicatorImpl implements the Deduplicator interface.
type deduplicatorImpl struct{}

func NewDeduplicator() Deduplicator {
	return &deduplicatorImpl{}
}

// Fingerprint computes the stable dedup key for a transaction: a sha256 over
// source, date, instrument, type, quantity, unit price and the cent-rounded
// net amount. Rounding before hashing keeps two exports that rounded the same
// amount independently from escaping detection.
func Fingerprint(tx models.Transaction) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		tx.Source,
		tx.Date.Format(utils.ISODateFormat),
		tx.ISIN,
		tx.Type,
		tx.Quantity.String(),
		tx.UnitPrice.String(),
		utils.RoundToCents(tx.NetAmount).String(),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Process assigns every transaction its dedup key and keeps exactly one
// representative per key: the first seen in ingestion order. The input is
// expected in ingestion order (ascending Seq), which makes the choice of
// representative deterministic across runs.
func (d *deduplicatorImpl) Process(transactions []models.Transaction) ([]models.Transaction, int, []models.Diagnostic) {
	seen := make(map[string]struct{}, len(transactions))
	kept := make([]models.Transaction, 0, len(transactions))
	var issues []models.Diagnostic
	dropped := 0

	for _, tx := range transactions {
		tx.DedupKey = Fingerprint(tx)
		if _, dup := seen[tx.DedupKey]; dup {
			dropped++
			issues = append(issues, models.Diagnostic{
				Kind:   models.DiagDuplicateDropped,
				Source: tx.Source,
				Line:   tx.Line,
				ISIN:   tx.ISIN,
				Date:   tx.Date.Format(utils.ISODateFormat),
				Message: fmt.Sprintf("duplicate %s transaction dropped (net %s)",
					tx.Type, utils.RoundToCents(tx.NetAmount).String()),
			})
			continue
		}
		seen[tx.DedupKey] = struct{}{}
		kept = append(kept, tx)
	}

	return kept, dropped, issues
}
