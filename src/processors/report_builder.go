// backend/src/processors/report_builder.go
package processors

import (
	"time"

	"github.com/google/uuid"
	"github.com/username/tradereport/backend/src/models"
)

// BuildReport assembles the final report from the pipeline stages. Nil slices
// are replaced by empty ones so the JSON rendering layer never sees null where
// a list belongs.
func BuildReport(
	sources []string,
	transactions []models.Transaction,
	recon *models.ReconciliationResult,
	stats *models.Statistics,
	diagnostics []models.Diagnostic,
	duplicatesDropped int,
) *models.Report {
	summary := stats.Summary
	summary.DuplicatesDropped = duplicatesDropped

	report := &models.Report{
		Meta: models.ReportMeta{
			RunID:       uuid.New().String(),
			GeneratedAt: time.Now().UTC(),
			Sources:     sources,
		},
		Summary:         summary,
		Positions:       recon.Positions,
		ClosedTrades:    recon.ClosedTrades,
		Transactions:    transactions,
		PnLTimeline:     stats.PnLTimeline,
		Scatter:         stats.Scatter,
		VolumeByMonth:   stats.VolumeByMonth,
		VolumeByWeekday: stats.VolumeByWeekday,
		Diagnostics:     diagnostics,
	}

	if report.Positions == nil {
		report.Positions = []models.Position{}
	}
	if report.ClosedTrades == nil {
		report.ClosedTrades = []models.ClosedTrade{}
	}
	if report.Transactions == nil {
		report.Transactions = []models.Transaction{}
	}
	if report.PnLTimeline == nil {
		report.PnLTimeline = []models.TimelinePoint{}
	}
	if report.Scatter == nil {
		report.Scatter = []models.ScatterPoint{}
	}
	if report.VolumeByMonth == nil {
		report.VolumeByMonth = []models.VolumeBucket{}
	}
	if report.VolumeByWeekday == nil {
		report.VolumeByWeekday = []models.VolumeBucket{}
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []models.Diagnostic{}
	}
	if report.Meta.Sources == nil {
		report.Meta.Sources = []string{}
	}
	return report
}
