// backend/src/models/reconciliation.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is an un-depleted slice of a single buy transaction, owned by the
// reconciliation engine's per-instrument FIFO queue.
type Lot struct {
	ISIN              string          `json:"isin"`
	ProductName       string          `json:"product_name"`
	AcquisitionDate   time.Time       `json:"acquisition_date"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	// UnitCostBasis is (GrossAmount + Fees) / Quantity of the originating buy.
	// It never changes after the lot is created; partial sells only reduce
	// QuantityRemaining.
	UnitCostBasis decimal.Decimal `json:"unit_cost_basis"`
	// Seq of the originating buy, kept for stable ordering of same-day lots.
	Seq int `json:"-"`
}

// ClosedTrade is the result of matching (part of) a sell against one lot.
// A sell spanning several lots produces several ClosedTrades.
type ClosedTrade struct {
	ISIN           string          `json:"isin"`
	ProductName    string          `json:"product_name"`
	QuantityClosed decimal.Decimal `json:"quantity_closed"`
	OpenDate       time.Time       `json:"open_date"`
	CloseDate      time.Time       `json:"close_date"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	// Proceeds is the sell's net amount prorated to QuantityClosed.
	Proceeds    decimal.Decimal `json:"proceeds"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	HoldDays    int             `json:"hold_days"`
}

// Position is the reporting view of an instrument's remaining open lots.
type Position struct {
	ISIN         string          `json:"isin"`
	ProductName  string          `json:"product_name"`
	OpenQuantity decimal.Decimal `json:"open_quantity"`
	// AverageCostBasis is the quantity-weighted mean unit cost across the
	// remaining lots. Display only; FIFO matching never uses it.
	AverageCostBasis decimal.Decimal `json:"average_cost_basis"`
	Lots             []Lot           `json:"lots"`
}

// ReconciliationResult is the full output of the lot reconciliation engine.
type ReconciliationResult struct {
	ClosedTrades []ClosedTrade
	Positions    []Position
	// DividendTotal sums dividend net amounts; TaxWithheld sums the signed Tax
	// field over all transactions; TaxAdjustmentsNet sums the signed net cash
	// effect of tax adjustment entries (refunds positive).
	DividendTotal     decimal.Decimal
	TaxWithheld       decimal.Decimal
	TaxAdjustmentsNet decimal.Decimal
	DepositTotal      decimal.Decimal
	WithdrawalTotal   decimal.Decimal
	Issues            []Diagnostic
}
