package zero

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradereport/backend/src/models"
)

const header = "\ufeffDatum;Valuta;Betrag;Status;Verwendungszweck;IBAN\n"

func parseRows(t *testing.T, rows ...string) *models.ParseResult {
	t.Helper()
	result, err := NewParser().Parse(strings.NewReader(header + strings.Join(rows, "\n")))
	require.NoError(t, err)
	return result
}

func deq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got.String(), want)
}

func TestParseOrderBuy(t *testing.T) {
	result := parseRows(t,
		`02.01.2024;02.01.2024;-1.234,56;bestätigt;Order Nr 4711 ISIN US0378331005 - Kauf (APPLE INC. ISIN US0378331005 STK 10,00);DE00`)

	require.Len(t, result.Transactions, 1)
	assert.Empty(t, result.Issues)

	tx := result.Transactions[0]
	assert.Equal(t, models.TypeOrderBuy, tx.Type)
	assert.Equal(t, "US0378331005", tx.ISIN)
	assert.Equal(t, "APPLE INC.", tx.ProductName)
	assert.Equal(t, "zero", tx.Source)
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, 2, tx.Line)
	deq(t, "10", tx.Quantity)
	deq(t, "1234.56", tx.NetAmount)
	deq(t, "1234.56", tx.GrossAmount)
	deq(t, "123.456", tx.UnitPrice)
	assert.True(t, tx.Fees.IsZero())
	assert.Equal(t, "2024-01-02", tx.Date.Format("2006-01-02"))
}

func TestClassifyPurposeTable(t *testing.T) {
	tests := []struct {
		name     string
		zweck    string
		wantType models.TransactionType
		wantISIN string
		wantQty  string
	}{
		{
			name:     "order sell",
			zweck:    "Order Nr 4712 ISIN US0378331005 - Verkauf (APPLE INC. ISIN US0378331005 STK 4,00)",
			wantType: models.TypeOrderSell,
			wantISIN: "US0378331005",
			wantQty:  "4",
		},
		{
			name:     "savings plan buy",
			zweck:    "Sparplan-Order zu ISIN IE00B4L5Y983 - Kauf (CORE MSCI WORLD ISIN IE00B4L5Y983 STK 0,5)",
			wantType: models.TypeSavingsPlanBuy,
			wantISIN: "IE00B4L5Y983",
			wantQty:  "0.5",
		},
		{
			name:     "savings plan liquidation treated as sell",
			zweck:    "Sparplan-Order zu ISIN IE00B4L5Y983 - Verkauf (CORE MSCI WORLD ISIN IE00B4L5Y983 STK 1,25)",
			wantType: models.TypeOrderSell,
			wantISIN: "IE00B4L5Y983",
			wantQty:  "1.25",
		},
		{
			name:     "fractional buy",
			zweck:    "Bruchstücke-Order zu ISIN US0378331005 - Kauf (APPLE INC. ISIN US0378331005 STK 0,1234)",
			wantType: models.TypeFractionalBuy,
			wantISIN: "US0378331005",
			wantQty:  "0.1234",
		},
		{
			name:     "knockout settlement",
			zweck:    "WP-Abrechnung Verkauf: TURBO OPEN END ISIN DE000XX000001 STK 50 - Referenz 99",
			wantType: models.TypeKnockoutSettlement,
			wantISIN: "DE000XX000001",
			wantQty:  "50",
		},
		{
			name:     "deposit by credit transfer",
			zweck:    "Gutschrift Überweisung",
			wantType: models.TypeDeposit,
		},
		{
			name:     "deposit by direct debit",
			zweck:    "Lastschrift Einzug",
			wantType: models.TypeDeposit,
		},
		{
			name:     "withdrawal",
			zweck:    "Auszahlung auf Referenzkonto",
			wantType: models.TypeWithdrawal,
		},
		{
			name:     "dividend",
			zweck:    "Coupons/Dividende ISIN US0378331005 APPLE INC.",
			wantType: models.TypeDividend,
			wantISIN: "US0378331005",
		},
		{
			name:     "tax settlement",
			zweck:    "Steuerausgleich gem. Steuerbescheinigung",
			wantType: models.TypeTaxAdjustment,
		},
		{
			name:     "advance lump sum tax",
			zweck:    "Vorabpauschale ISIN IE00B4L5Y983",
			wantType: models.TypeTaxAdjustment,
			wantISIN: "IE00B4L5Y983",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, issue := classifyPurpose(tt.zweck, 2)
			assert.Nil(t, issue)
			assert.Equal(t, tt.wantType, tx.Type)
			assert.Equal(t, tt.wantISIN, tx.ISIN)
			if tt.wantQty != "" {
				deq(t, tt.wantQty, tx.Quantity)
			}
		})
	}
}

func TestUnknownPurposeIsUncategorized(t *testing.T) {
	for _, zweck := range []string{"KKT-Abschluss per 31.12.2024", "Sonstige Buchung"} {
		tx, issue := classifyPurpose(zweck, 3)
		assert.Equal(t, models.TypeUncategorized, tx.Type)
		require.NotNil(t, issue)
		assert.Equal(t, models.DiagUnrecognizedLabel, issue.Kind)
		assert.Equal(t, 3, issue.Line)
	}
}

func TestTaxAdjustmentSign(t *testing.T) {
	// A negative Betrag is a tax charge, so the canonical withheld amount is positive.
	result := parseRows(t,
		`15.01.2024;15.01.2024;-12,50;bestätigt;Vorabpauschale ISIN IE00B4L5Y983;DE00`,
		`20.01.2024;20.01.2024;3,10;bestätigt;Steuerausgleich;DE00`)

	require.Len(t, result.Transactions, 2)
	deq(t, "12.5", result.Transactions[0].Tax)
	deq(t, "-3.1", result.Transactions[1].Tax)
}

func TestBadRowsBecomeDiagnostics(t *testing.T) {
	result := parseRows(t,
		`not-a-date;;-10,00;bestätigt;Gutschrift;DE00`,
		`02.01.2024;02.01.2024;not-a-number;bestätigt;Gutschrift;DE00`,
		`03.01.2024;03.01.2024;100,00;bestätigt;Gutschrift Überweisung;DE00`)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, models.TypeDeposit, result.Transactions[0].Type)

	require.Len(t, result.Issues, 2)
	for _, issue := range result.Issues {
		assert.Equal(t, models.DiagParseError, issue.Kind)
	}
}

func TestMissingColumnsIsFatal(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("Datum;Betrag\n01.01.2024;1,00\n"))
	assert.Error(t, err)
}
