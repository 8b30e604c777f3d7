package services

import (
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/processors"
)

const zeroCSV = "Datum;Valuta;Betrag;Status;Verwendungszweck;IBAN\n" +
	"02.01.2024;02.01.2024;1.000,00;bestätigt;Gutschrift Überweisung;DE00\n" +
	"03.01.2024;03.01.2024;-101,00;bestätigt;Order Nr 1 ISIN US0378331005 - Kauf (APPLE INC. ISIN US0378331005 STK 10,00);DE00\n" +
	"12.01.2024;12.01.2024;149,00;bestätigt;Order Nr 2 ISIN US0378331005 - Verkauf (APPLE INC. ISIN US0378331005 STK 10,00);DE00\n" +
	"15.01.2024;15.01.2024;12,00;bestätigt;Coupons/Dividende ISIN US0378331005 APPLE INC.;DE00\n" +
	"31.01.2024;31.01.2024;0,00;bestätigt;KKT-Abschluss per 31.01.2024;DE00\n"

func newService(reportCache *cache.Cache) ReportService {
	return NewReportService(
		processors.NewDeduplicator(),
		processors.NewPositionProcessor(),
		processors.NewStatisticsProcessor(),
		reportCache,
	)
}

func deq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got.String(), want)
}

func TestGenerateReportEndToEnd(t *testing.T) {
	svc := newService(nil)
	report, err := svc.GenerateReport([]SourceInput{{Source: "zero", Reader: strings.NewReader(zeroCSV)}})
	require.NoError(t, err)

	assert.Equal(t, []string{"zero"}, report.Meta.Sources)
	assert.NotEmpty(t, report.Meta.RunID)
	assert.Len(t, report.Transactions, 5)

	deq(t, "1000", report.Summary.Deposits)
	deq(t, "48", report.Summary.RealizedPnL)
	deq(t, "12", report.Summary.Dividends)
	assert.Equal(t, 2, report.Summary.TradeCount)
	assert.Equal(t, 1, report.Summary.ClosedTradeCount)
	assert.Equal(t, 0, report.Summary.OpenPositionCount)
	assert.Zero(t, report.Summary.DuplicatesDropped)

	require.Len(t, report.ClosedTrades, 1)
	trade := report.ClosedTrades[0]
	deq(t, "101", trade.CostBasis)
	deq(t, "149", trade.Proceeds)
	deq(t, "48", trade.RealizedPnL)
	assert.Equal(t, 9, trade.HoldDays)

	// The KKT-Abschluss row survives as uncategorized with a diagnostic.
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, models.DiagUnrecognizedLabel, report.Diagnostics[0].Kind)
	assert.Equal(t, models.TypeUncategorized, report.Transactions[4].Type)
}

func TestGenerateReportDeduplicatesAcrossInputs(t *testing.T) {
	svc := newService(nil)
	report, err := svc.GenerateReport([]SourceInput{
		{Source: "zero", Reader: strings.NewReader(zeroCSV)},
		{Source: "zero", Reader: strings.NewReader(zeroCSV)},
	})
	require.NoError(t, err)

	// Every row of the second copy is an exact duplicate.
	assert.Len(t, report.Transactions, 5)
	assert.Equal(t, 5, report.Summary.DuplicatesDropped)
	deq(t, "48", report.Summary.RealizedPnL)
	deq(t, "1000", report.Summary.Deposits)
	assert.Equal(t, []string{"zero"}, report.Meta.Sources)
}

func TestGenerateReportUnknownSource(t *testing.T) {
	svc := newService(nil)
	_, err := svc.GenerateReport([]SourceInput{{Source: "unknown", Reader: strings.NewReader("x")}})
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestGenerateReportNoUsableData(t *testing.T) {
	svc := newService(nil)

	_, err := svc.GenerateReport(nil)
	assert.ErrorIs(t, err, ErrNoUsableData)

	headerOnly := "Datum;Valuta;Betrag;Status;Verwendungszweck;IBAN\n"
	_, err = svc.GenerateReport([]SourceInput{{Source: "zero", Reader: strings.NewReader(headerOnly)}})
	assert.ErrorIs(t, err, ErrNoUsableData)
}

func TestProcessUploadCachesByContent(t *testing.T) {
	svc := newService(cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	first, err := svc.ProcessUpload(strings.NewReader(zeroCSV), "zero")
	require.NoError(t, err)

	second, err := svc.ProcessUpload(strings.NewReader(zeroCSV), "zero")
	require.NoError(t, err)
	assert.Same(t, first, second, "byte-identical re-upload is a cache hit")

	changed := strings.Replace(zeroCSV, "12,00", "13,00", 1)
	third, err := svc.ProcessUpload(strings.NewReader(changed), "zero")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	deq(t, "13", third.Summary.Dividends)
}

func TestProcessUploadWithoutCache(t *testing.T) {
	svc := newService(nil)
	report, err := svc.ProcessUpload(strings.NewReader(zeroCSV), "zero")
	require.NoError(t, err)
	deq(t, "48", report.Summary.RealizedPnL)
}
