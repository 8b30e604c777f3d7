// backend/src/models/report.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the run-wide totals shown at the top of the report.
type Summary struct {
	Deposits          decimal.Decimal `json:"deposits"`
	Withdrawals       decimal.Decimal `json:"withdrawals"`
	RealizedPnL       decimal.Decimal `json:"realized_pnl"`
	Dividends         decimal.Decimal `json:"dividends"`
	TaxWithheld       decimal.Decimal `json:"tax_withheld"`
	TaxAdjustmentsNet decimal.Decimal `json:"tax_adjustments_net"`
	TradedVolume      decimal.Decimal `json:"traded_volume"`
	TradeCount        int             `json:"trade_count"`
	OpenPositionCount int             `json:"open_position_count"`
	ClosedTradeCount  int             `json:"closed_trade_count"`
	DuplicatesDropped int             `json:"duplicates_dropped"`
}

// TimelinePoint is one step of the cumulative realized P&L series, one point
// per closed trade, sorted by close date.
type TimelinePoint struct {
	Date        string          `json:"date"`
	Change      decimal.Decimal `json:"change"`
	Cumulative  decimal.Decimal `json:"cumulative"`
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
}

// ScatterPoint relates hold time to return for one closed trade.
type ScatterPoint struct {
	HoldDays    int             `json:"hold_days"`
	ReturnPct   decimal.Decimal `json:"return_pct"`
	ReturnAbs   decimal.Decimal `json:"return_abs"`
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
}

// VolumeBucket aggregates traded gross amounts for one calendar month or one
// weekday, split by direction.
type VolumeBucket struct {
	Bucket string          `json:"bucket"`
	Buy    decimal.Decimal `json:"buy"`
	Sell   decimal.Decimal `json:"sell"`
	Count  int             `json:"count"`
}

// Statistics is the aggregator output consumed by the report builder.
type Statistics struct {
	Summary         Summary
	PnLTimeline     []TimelinePoint
	Scatter         []ScatterPoint
	VolumeByMonth   []VolumeBucket
	VolumeByWeekday []VolumeBucket
}

// ReportMeta identifies one pipeline run.
type ReportMeta struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Sources     []string  `json:"sources"`
}

// Report is the structured result handed to the rendering layer. It carries
// only primitive values and lists thereof; the engine's internal lot queues
// never leak beyond the Positions view.
type Report struct {
	Meta            ReportMeta      `json:"meta"`
	Summary         Summary         `json:"summary"`
	Positions       []Position      `json:"positions"`
	ClosedTrades    []ClosedTrade   `json:"closed_trades"`
	Transactions    []Transaction   `json:"transactions"`
	PnLTimeline     []TimelinePoint `json:"pnl_timeline"`
	Scatter         []ScatterPoint  `json:"scatter"`
	VolumeByMonth   []VolumeBucket  `json:"volume_by_month"`
	VolumeByWeekday []VolumeBucket  `json:"volume_by_weekday"`
	Diagnostics     []Diagnostic    `json:"diagnostics"`
}
