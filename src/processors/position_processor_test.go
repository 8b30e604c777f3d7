package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradereport/backend/src/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func deq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got.String(), want)
}

// buy opens a lot with the given gross cost and fees; net = gross + fees.
func buy(seq, d int, isin, qty, gross, fees string) models.Transaction {
	g := decimal.RequireFromString(gross)
	f := decimal.RequireFromString(fees)
	return models.Transaction{
		Type: models.TypeOrderBuy, Source: "zero", Date: day(d), ISIN: isin,
		ProductName: "TEST PRODUCT", Quantity: decimal.RequireFromString(qty),
		GrossAmount: g, Fees: f, NetAmount: g.Add(f), Seq: seq,
	}
}

// sell books net proceeds of gross - fees.
func sell(seq, d int, isin, qty, gross, fees string) models.Transaction {
	g := decimal.RequireFromString(gross)
	f := decimal.RequireFromString(fees)
	return models.Transaction{
		Type: models.TypeOrderSell, Source: "zero", Date: day(d), ISIN: isin,
		ProductName: "TEST PRODUCT", Quantity: decimal.RequireFromString(qty),
		GrossAmount: g, Fees: f, NetAmount: g.Sub(f), Seq: seq,
	}
}

func cashTx(seq, d int, typ models.TransactionType, net string) models.Transaction {
	return models.Transaction{
		Type: typ, Source: "zero", Date: day(d),
		NetAmount: decimal.RequireFromString(net), GrossAmount: decimal.RequireFromString(net), Seq: seq,
	}
}

func TestRoundTripRealizesFeesInPnL(t *testing.T) {
	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "US0378331005", "10", "100", "1"),
		sell(1, 11, "US0378331005", "10", "150", "1"),
	})

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	deq(t, "10", trade.QuantityClosed)
	deq(t, "101", trade.CostBasis)
	deq(t, "149", trade.Proceeds)
	deq(t, "48", trade.RealizedPnL)
	assert.Equal(t, 9, trade.HoldDays)
	assert.Equal(t, day(2), trade.OpenDate)
	assert.Equal(t, day(11), trade.CloseDate)
	assert.Empty(t, result.Positions)
	assert.Empty(t, result.Issues)
}

func TestFIFOConsumesOldestLotFirst(t *testing.T) {
	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "US0378331005", "10", "100", "0"),
		buy(1, 3, "US0378331005", "10", "200", "0"),
		sell(2, 5, "US0378331005", "10", "150", "0"),
	})

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	assert.Equal(t, day(2), trade.OpenDate, "oldest lot matched first")
	deq(t, "100", trade.CostBasis)
	deq(t, "50", trade.RealizedPnL)

	require.Len(t, result.Positions, 1)
	pos := result.Positions[0]
	deq(t, "10", pos.OpenQuantity)
	deq(t, "20", pos.AverageCostBasis)
	require.Len(t, pos.Lots, 1)
	assert.Equal(t, day(3), pos.Lots[0].AcquisitionDate)
}

func TestPartialSellSplitsLot(t *testing.T) {
	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "US0378331005", "10", "100", "0"),
		sell(1, 5, "US0378331005", "4", "60", "0"),
	})

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	deq(t, "4", trade.QuantityClosed)
	deq(t, "40", trade.CostBasis)
	deq(t, "60", trade.Proceeds)
	deq(t, "20", trade.RealizedPnL)

	require.Len(t, result.Positions, 1)
	deq(t, "6", result.Positions[0].OpenQuantity)
	deq(t, "10", result.Positions[0].AverageCostBasis)
}

func TestSellSpanningLotsProratesProceeds(t *testing.T) {
	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "US0378331005", "5", "50", "0"),
		buy(1, 3, "US0378331005", "5", "100", "0"),
		sell(2, 5, "US0378331005", "8", "160", "0"),
	})

	require.Len(t, result.ClosedTrades, 2)

	first := result.ClosedTrades[0]
	deq(t, "5", first.QuantityClosed)
	deq(t, "50", first.CostBasis)
	deq(t, "100", first.Proceeds)
	deq(t, "50", first.RealizedPnL)

	second := result.ClosedTrades[1]
	deq(t, "3", second.QuantityClosed)
	deq(t, "60", second.CostBasis)
	deq(t, "60", second.Proceeds)
	deq(t, "0", second.RealizedPnL)

	// Quantity is conserved: bought 10, closed 8, 2 remain open.
	require.Len(t, result.Positions, 1)
	deq(t, "2", result.Positions[0].OpenQuantity)
}

func TestOversellClampsAndIsolatesInstrument(t *testing.T) {
	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "US0378331005", "5", "50", "0"),
		sell(1, 5, "US0378331005", "8", "160", "0"),
		buy(2, 2, "IE00B4L5Y983", "3", "300", "0"),
	})

	// Only the covered 5 units close; the 3-unit shortfall is flagged.
	require.Len(t, result.ClosedTrades, 1)
	deq(t, "5", result.ClosedTrades[0].QuantityClosed)
	deq(t, "100", result.ClosedTrades[0].Proceeds)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, models.DiagOversell, result.Issues[0].Kind)
	assert.Equal(t, "US0378331005", result.Issues[0].ISIN)
	deq(t, "3", result.Issues[0].Shortfall)

	// The other instrument is untouched by the fault.
	require.Len(t, result.Positions, 1)
	assert.Equal(t, "IE00B4L5Y983", result.Positions[0].ISIN)
	deq(t, "3", result.Positions[0].OpenQuantity)
}

func TestOrderingByDateThenSequence(t *testing.T) {
	p := NewPositionProcessor()
	// The sell arrives before the buy in ingestion order but on a later date.
	result := p.Process([]models.Transaction{
		sell(0, 10, "US0378331005", "10", "150", "0"),
		buy(1, 2, "US0378331005", "10", "100", "0"),
	})

	require.Len(t, result.ClosedTrades, 1)
	deq(t, "50", result.ClosedTrades[0].RealizedPnL)
	assert.Empty(t, result.Issues)
}

func TestKnockoutTotalLossIsFlagged(t *testing.T) {
	knockout := models.Transaction{
		Type: models.TypeKnockoutSettlement, Source: "zero", Date: day(20),
		ISIN: "DE000XX000001", Quantity: decimal.NewFromInt(50),
		NetAmount: decimal.Zero, GrossAmount: decimal.Zero, Seq: 1,
	}

	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		buy(0, 2, "DE000XX000001", "50", "100", "0"),
		knockout,
	})

	require.Len(t, result.ClosedTrades, 1)
	deq(t, "0", result.ClosedTrades[0].Proceeds)
	deq(t, "-100", result.ClosedTrades[0].RealizedPnL)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, models.DiagNonPositiveProceeds, result.Issues[0].Kind)
}

func TestCashTotalsAccumulate(t *testing.T) {
	taxCharge := cashTx(4, 16, models.TypeTaxAdjustment, "12.5")
	taxCharge.Tax = decimal.RequireFromString("12.5")
	taxRefund := cashTx(5, 17, models.TypeTaxAdjustment, "3.1")
	taxRefund.Tax = decimal.RequireFromString("-3.1")

	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{
		cashTx(0, 2, models.TypeDeposit, "1000"),
		cashTx(1, 3, models.TypeDeposit, "500"),
		cashTx(2, 10, models.TypeWithdrawal, "250"),
		cashTx(3, 15, models.TypeDividend, "12"),
		taxCharge,
		taxRefund,
	})

	deq(t, "1500", result.DepositTotal)
	deq(t, "250", result.WithdrawalTotal)
	deq(t, "12", result.DividendTotal)
	deq(t, "9.4", result.TaxWithheld)
	deq(t, "-9.4", result.TaxAdjustmentsNet)
	assert.Empty(t, result.ClosedTrades)
	assert.Empty(t, result.Positions)
}

func TestBuyWithoutInstrumentIsFlagged(t *testing.T) {
	bad := buy(0, 2, "", "10", "100", "0")

	p := NewPositionProcessor()
	result := p.Process([]models.Transaction{bad})

	assert.Empty(t, result.Positions)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, models.DiagParseError, result.Issues[0].Kind)
}
