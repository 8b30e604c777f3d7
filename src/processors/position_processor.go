// backend/src/processors/position_processor.go
package processors

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/tradereport/backend/src/logger"
	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/utils"
)

// positionProcessorImpl implements the PositionProcessor interface.
type positionProcessorImpl struct{}

func NewPositionProcessor() PositionProcessor {
	return &positionProcessorImpl{}
}

// instrumentState is the per-instrument FIFO queue of open lots. Instruments
// are fully independent; a fault in one never touches another.
type instrumentState struct {
	isin         string
	name         string
	lots         []models.Lot
	unreconciled decimal.Decimal
}

// Process runs the FIFO lot matching over the deduplicated transaction set.
// Transactions are processed in non-decreasing date order with ties broken by
// ingestion order, so results are deterministic for identical inputs.
func (p *positionProcessorImpl) Process(transactions []models.Transaction) *models.ReconciliationResult {
	ordered := make([]models.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	result := &models.ReconciliationResult{
		DividendTotal:     decimal.Zero,
		TaxWithheld:       decimal.Zero,
		TaxAdjustmentsNet: decimal.Zero,
		DepositTotal:      decimal.Zero,
		WithdrawalTotal:   decimal.Zero,
	}
	states := make(map[string]*instrumentState)

	for _, tx := range ordered {
		// The signed tax field accumulates across every transaction type.
		result.TaxWithheld = result.TaxWithheld.Add(tx.Tax)

		switch {
		case tx.Type.IsBuy():
			p.openLot(states, tx, result)
		case tx.Type.IsSell():
			p.matchSell(states, tx, result)
		case tx.Type == models.TypeDividend:
			result.DividendTotal = result.DividendTotal.Add(tx.NetAmount)
		case tx.Type == models.TypeTaxAdjustment:
			// Cash effect is the inverse of the withheld sign: a refund
			// (negative Tax) adds cash.
			result.TaxAdjustmentsNet = result.TaxAdjustmentsNet.Add(tx.Tax.Neg())
		case tx.Type == models.TypeDeposit:
			result.DepositTotal = result.DepositTotal.Add(tx.NetAmount)
		case tx.Type == models.TypeWithdrawal:
			result.WithdrawalTotal = result.WithdrawalTotal.Add(tx.NetAmount)
		}
		// Uncategorized rows deliberately touch nothing.
	}

	result.Positions = buildPositions(states)
	return result
}

func (p *positionProcessorImpl) openLot(states map[string]*instrumentState, tx models.Transaction, result *models.ReconciliationResult) {
	if tx.ISIN == "" || !tx.Quantity.IsPositive() {
		result.Issues = append(result.Issues, models.Diagnostic{
			Kind:    models.DiagParseError,
			Source:  tx.Source,
			Line:    tx.Line,
			ISIN:    tx.ISIN,
			Date:    tx.Date.Format(utils.ISODateFormat),
			Message: fmt.Sprintf("buy without instrument or positive quantity (qty %s), lot not opened", tx.Quantity.String()),
		})
		return
	}
	st := getState(states, tx)
	st.lots = append(st.lots, models.Lot{
		ISIN:              tx.ISIN,
		ProductName:       st.name,
		AcquisitionDate:   tx.Date,
		QuantityRemaining: tx.Quantity,
		UnitCostBasis:     tx.GrossAmount.Add(tx.Fees).Div(tx.Quantity),
		Seq:               tx.Seq,
	})
}

func (p *positionProcessorImpl) matchSell(states map[string]*instrumentState, tx models.Transaction, result *models.ReconciliationResult) {
	if tx.ISIN == "" || !tx.Quantity.IsPositive() {
		result.Issues = append(result.Issues, models.Diagnostic{
			Kind:    models.DiagParseError,
			Source:  tx.Source,
			Line:    tx.Line,
			ISIN:    tx.ISIN,
			Date:    tx.Date.Format(utils.ISODateFormat),
			Message: fmt.Sprintf("sell without instrument or positive quantity (qty %s), not matched", tx.Quantity.String()),
		})
		return
	}

	if tx.Type == models.TypeKnockoutSettlement && !tx.NetAmount.IsPositive() {
		// Total loss: settled at zero. Flagged rather than guessed at.
		result.Issues = append(result.Issues, models.Diagnostic{
			Kind:    models.DiagNonPositiveProceeds,
			Source:  tx.Source,
			Line:    tx.Line,
			ISIN:    tx.ISIN,
			Date:    tx.Date.Format(utils.ISODateFormat),
			Message: fmt.Sprintf("knock-out settlement with non-positive proceeds (%s)", tx.NetAmount.String()),
		})
	}

	st := getState(states, tx)
	remaining := tx.Quantity

	for remaining.IsPositive() && len(st.lots) > 0 {
		lot := &st.lots[0]
		matched := decimal.Min(remaining, lot.QuantityRemaining)

		// Net proceeds attributable to the matched portion of the sell.
		proceeds := tx.NetAmount.Mul(matched).Div(tx.Quantity)
		costBasis := lot.UnitCostBasis.Mul(matched)

		result.ClosedTrades = append(result.ClosedTrades, models.ClosedTrade{
			ISIN:           tx.ISIN,
			ProductName:    st.name,
			QuantityClosed: matched,
			OpenDate:       lot.AcquisitionDate,
			CloseDate:      tx.Date,
			CostBasis:      costBasis,
			Proceeds:       proceeds,
			RealizedPnL:    proceeds.Sub(costBasis),
			HoldDays:       utils.DaysBetween(lot.AcquisitionDate, tx.Date),
		})

		remaining = remaining.Sub(matched)
		lot.QuantityRemaining = lot.QuantityRemaining.Sub(matched)
		if lot.QuantityRemaining.IsZero() {
			st.lots = st.lots[1:]
		}
	}

	if remaining.IsPositive() {
		// Data-integrity condition: the sell exceeds everything that was ever
		// bought. The instrument is clamped to zero and the shortfall recorded;
		// other instruments are unaffected.
		rerr := &models.ReconciliationError{ISIN: tx.ISIN, Date: tx.Date, Shortfall: remaining}
		if logger.L != nil {
			logger.L.Warn("Oversell detected during reconciliation",
				"isin", tx.ISIN, "date", tx.Date.Format(utils.ISODateFormat), "shortfall", remaining.String())
		}
		result.Issues = append(result.Issues, rerr.Diagnostic())
		st.unreconciled = st.unreconciled.Add(remaining)
	}
}

func getState(states map[string]*instrumentState, tx models.Transaction) *instrumentState {
	st, ok := states[tx.ISIN]
	if !ok {
		st = &instrumentState{isin: tx.ISIN, name: tx.ProductName, unreconciled: decimal.Zero}
		states[tx.ISIN] = st
	}
	if st.name == "" && tx.ProductName != "" {
		st.name = tx.ProductName
	}
	return st
}

// buildPositions converts the surviving lot queues into the reporting view,
// sorted by ISIN for stable output.
func buildPositions(states map[string]*instrumentState) []models.Position {
	var positions []models.Position
	for _, st := range states {
		if len(st.lots) == 0 {
			continue
		}
		openQty := decimal.Zero
		weightedCost := decimal.Zero
		lots := make([]models.Lot, len(st.lots))
		copy(lots, st.lots)
		for _, lot := range lots {
			openQty = openQty.Add(lot.QuantityRemaining)
			weightedCost = weightedCost.Add(lot.QuantityRemaining.Mul(lot.UnitCostBasis))
		}
		avgCost := decimal.Zero
		if openQty.IsPositive() {
			avgCost = weightedCost.Div(openQty)
		}
		positions = append(positions, models.Position{
			ISIN:             st.isin,
			ProductName:      st.name,
			OpenQuantity:     openQty,
			AverageCostBasis: avgCost,
			Lots:             lots,
		})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].ISIN < positions[j].ISIN })
	return positions
}
