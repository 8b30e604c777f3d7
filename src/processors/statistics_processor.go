// backend/src/processors/statistics_processor.go
package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/utils"
)

// statisticsProcessorImpl implements the StatisticsProcessor interface.
type statisticsProcessorImpl struct{}

func NewStatisticsProcessor() StatisticsProcessor {
	return &statisticsProcessorImpl{}
}

var hundred = decimal.NewFromInt(100)

// Aggregate is a pure function of the deduplicated transactions and the
// reconciliation result. All orderings are fixed (date sorts, month keys,
// Monday-first weekdays), so identical inputs always produce identical output.
func (s *statisticsProcessorImpl) Aggregate(transactions []models.Transaction, recon *models.ReconciliationResult) *models.Statistics {
	stats := &models.Statistics{
		Summary: models.Summary{
			Deposits:          recon.DepositTotal,
			Withdrawals:       recon.WithdrawalTotal,
			RealizedPnL:       decimal.Zero,
			Dividends:         recon.DividendTotal,
			TaxWithheld:       recon.TaxWithheld,
			TaxAdjustmentsNet: recon.TaxAdjustmentsNet,
			TradedVolume:      decimal.Zero,
			OpenPositionCount: len(recon.Positions),
			ClosedTradeCount:  len(recon.ClosedTrades),
		},
	}

	for _, trade := range recon.ClosedTrades {
		stats.Summary.RealizedPnL = stats.Summary.RealizedPnL.Add(trade.RealizedPnL)
	}

	stats.VolumeByMonth, stats.VolumeByWeekday = s.volumeBuckets(transactions, &stats.Summary)
	stats.PnLTimeline = s.timeline(recon.ClosedTrades)
	stats.Scatter = s.scatter(recon.ClosedTrades)

	return stats
}

// volumeBuckets groups order/savings-plan/fractional transactions by calendar
// month and by weekday, gross amounts split by direction.
func (s *statisticsProcessorImpl) volumeBuckets(transactions []models.Transaction, summary *models.Summary) (byMonth, byWeekday []models.VolumeBucket) {
	months := make(map[string]*models.VolumeBucket)
	weekdays := make(map[string]*models.VolumeBucket)

	for _, tx := range transactions {
		if !tx.Type.IsTrade() {
			continue
		}
		summary.TradedVolume = summary.TradedVolume.Add(tx.GrossAmount)
		summary.TradeCount++

		monthKey := tx.Date.Format("2006-01")
		weekdayKey := tx.Date.Weekday().String()[:3]
		for _, bucket := range []*models.VolumeBucket{ensureBucket(months, monthKey), ensureBucket(weekdays, weekdayKey)} {
			if tx.Type.IsBuy() {
				bucket.Buy = bucket.Buy.Add(tx.GrossAmount)
			} else {
				bucket.Sell = bucket.Sell.Add(tx.GrossAmount)
			}
			bucket.Count++
		}
	}

	for _, bucket := range months {
		byMonth = append(byMonth, *bucket)
	}
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].Bucket < byMonth[j].Bucket })

	// Monday-first, matching how trading weeks read.
	for _, name := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		if bucket, ok := weekdays[name]; ok {
			byWeekday = append(byWeekday, *bucket)
		}
	}
	return byMonth, byWeekday
}

func ensureBucket(buckets map[string]*models.VolumeBucket, key string) *models.VolumeBucket {
	bucket, ok := buckets[key]
	if !ok {
		bucket = &models.VolumeBucket{Bucket: key, Buy: decimal.Zero, Sell: decimal.Zero}
		buckets[key] = bucket
	}
	return bucket
}

// timeline emits one point per closed trade, close-date ascending, with the
// running cumulative realized P&L.
func (s *statisticsProcessorImpl) timeline(closedTrades []models.ClosedTrade) []models.TimelinePoint {
	ordered := make([]models.ClosedTrade, len(closedTrades))
	copy(ordered, closedTrades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].CloseDate.Before(ordered[j].CloseDate) })

	cumulative := decimal.Zero
	points := make([]models.TimelinePoint, 0, len(ordered))
	for _, trade := range ordered {
		cumulative = cumulative.Add(trade.RealizedPnL)
		points = append(points, models.TimelinePoint{
			Date:        trade.CloseDate.Format(utils.ISODateFormat),
			Change:      utils.RoundToCents(trade.RealizedPnL),
			Cumulative:  utils.RoundToCents(cumulative),
			ISIN:        trade.ISIN,
			ProductName: trade.ProductName,
		})
	}
	return points
}

// scatter emits one hold-time/return point per closed trade.
func (s *statisticsProcessorImpl) scatter(closedTrades []models.ClosedTrade) []models.ScatterPoint {
	points := make([]models.ScatterPoint, 0, len(closedTrades))
	for _, trade := range closedTrades {
		returnPct := decimal.Zero
		if trade.CostBasis.IsPositive() {
			returnPct = trade.RealizedPnL.Div(trade.CostBasis).Mul(hundred).Round(2)
		}
		points = append(points, models.ScatterPoint{
			HoldDays:    trade.HoldDays,
			ReturnPct:   returnPct,
			ReturnAbs:   utils.RoundToCents(trade.RealizedPnL),
			ISIN:        trade.ISIN,
			ProductName: trade.ProductName,
		})
	}
	return points
}
