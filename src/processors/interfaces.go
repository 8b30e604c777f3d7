package processors

import (
	"github.com/username/tradereport/backend/src/models"
)

// Deduplicator collapses transactions that represent the same real-world event
// seen through overlapping exports.
type Deduplicator interface {
	Process(transactions []models.Transaction) (kept []models.Transaction, dropped int, issues []models.Diagnostic)
}

// PositionProcessor is the FIFO lot reconciliation engine.
type PositionProcessor interface {
	Process(transactions []models.Transaction) *models.ReconciliationResult
}

// StatisticsProcessor derives report statistics from the deduplicated
// transactions and the reconciliation output.
type StatisticsProcessor interface {
	Aggregate(transactions []models.Transaction, recon *models.ReconciliationResult) *models.Statistics
}
