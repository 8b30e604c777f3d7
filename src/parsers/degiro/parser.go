// backend/src/parsers/degiro/parser.go
package degiro

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/utils"
)

// Source identifies the DEGIRO account CSV export format.
const Source = "degiro"

type rawRecord struct {
	Line                                                                            int
	OrderDate, OrderTime, ValueDate, Name, ISIN, Description, Currency, Amount, OrderID string
}

var (
	tradeRe = regexp.MustCompile(`(?i)\s*(compra|venda)\s+([\d\s.,]+)\s+(.+?)\s*@([\d,.]+)`)
	// Option contracts carry a strike and expiry suffix; they are outside the
	// canonical type set.
	optionRe = regexp.MustCompile(`\s+[CP]\d+(\.\d+)?\s+\d{2}[A-Z]{3}\d{2}$`)
)

type DeGiroParser struct{}

func NewParser() *DeGiroParser {
	return &DeGiroParser{}
}

// Parse reads a DEGIRO account CSV (dates DD-MM-YYYY, dot-decimal amounts,
// Portuguese transaction descriptions). Commission rows are folded into the
// fees of the trade row sharing their order ID.
func (p *DeGiroParser) Parse(file io.Reader) (*models.ParseResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("degiro parser: failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("degiro parser: failed to read CSV records: %w", err)
	}

	var raws []rawRecord
	result := &models.ParseResult{}
	for i, record := range records {
		line := i + 2
		if len(record) < 12 {
			perr := &models.ParseError{Source: Source, Line: line, Reason: "record has too few fields"}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}
		raws = append(raws, rawRecord{
			Line: line, OrderDate: record[0], OrderTime: record[1], ValueDate: record[2],
			Name: record[3], ISIN: record[4], Description: record[5],
			Currency: record[7], Amount: record[8], OrderID: record[11],
		})
	}

	for _, raw := range raws {
		if isCommissionRow(raw.Description) && raw.OrderID != "" {
			// Folded into the matching trade's fees below.
			continue
		}

		date, err := utils.ParseCalendarDate(raw.OrderDate, utils.DashDateFormat)
		if err != nil {
			perr := &models.ParseError{Source: Source, Line: raw.Line, Reason: err.Error()}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}

		amount, err := utils.ParseDotDecimal(raw.Amount)
		if err != nil {
			perr := &models.ParseError{Source: Source, Line: raw.Line, Reason: err.Error()}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}

		tx, issue := classify(raw, amount, commissionForOrder(raw.OrderID, raws))
		tx.Source = Source
		tx.Date = date
		tx.ISIN = strings.TrimSpace(raw.ISIN)
		tx.Currency = raw.Currency
		tx.Line = raw.Line
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
		}
		result.Transactions = append(result.Transactions, tx)
	}

	return result, nil
}

func classify(raw rawRecord, amount, commission decimal.Decimal) (models.Transaction, *models.Diagnostic) {
	var tx models.Transaction
	lowerDesc := strings.ToLower(raw.Description)

	switch {
	case strings.Contains(lowerDesc, "imposto sobre dividendo"):
		// Withheld dividend tax is booked as its own row; surfaced as a tax
		// entry so the dividend total stays gross-of-fee comparable.
		tx.Type = models.TypeTaxAdjustment
		tx.ProductName = raw.Name
		tx.Tax = amount.Abs()
		tx.NetAmount = amount.Abs()
		tx.GrossAmount = amount.Abs()
		return tx, nil
	case strings.Contains(lowerDesc, "dividendo"):
		tx.Type = models.TypeDividend
		tx.ProductName = raw.Name
		tx.NetAmount = amount.Abs()
		tx.GrossAmount = amount.Abs()
		return tx, nil
	case strings.Contains(lowerDesc, "depósito"), strings.Contains(lowerDesc, "flatex deposit"):
		tx.Type = models.TypeDeposit
		tx.ProductName = "Cash Deposit"
		tx.NetAmount = amount.Abs()
		tx.GrossAmount = amount.Abs()
		return tx, nil
	case strings.Contains(lowerDesc, "levantamento"), strings.Contains(lowerDesc, "flatex withdrawal"):
		tx.Type = models.TypeWithdrawal
		tx.ProductName = "Cash Withdrawal"
		tx.NetAmount = amount.Abs()
		tx.GrossAmount = amount.Abs()
		return tx, nil
	}

	if m := tradeRe.FindStringSubmatch(raw.Description); m != nil {
		productName := strings.TrimSpace(m[3])
		quantity := parseCommaDecimal(m[2])
		price := parseCommaDecimal(m[4])

		if optionRe.MatchString(productName) {
			// Option trades do not map onto the canonical set.
			tx.Type = models.TypeUncategorized
			tx.ProductName = productName
			tx.NetAmount = amount.Abs()
			tx.GrossAmount = amount.Abs()
			cerr := &models.ClassificationError{Source: Source, Line: raw.Line, Label: "option trade: " + productName}
			diag := cerr.Diagnostic()
			return tx, &diag
		}

		if strings.EqualFold(m[1], "compra") {
			tx.Type = models.TypeOrderBuy
		} else {
			tx.Type = models.TypeOrderSell
		}
		tx.ProductName = productName
		tx.Quantity = quantity
		tx.UnitPrice = price
		tx.Fees = commission
		tx.GrossAmount = quantity.Mul(price)
		if tx.Type == models.TypeOrderBuy {
			tx.NetAmount = tx.GrossAmount.Add(commission)
		} else {
			tx.NetAmount = tx.GrossAmount.Sub(commission)
		}
		return tx, nil
	}

	// Sweeps, product changes, standalone fees and anything unknown.
	tx.Type = models.TypeUncategorized
	tx.ProductName = raw.Name
	tx.NetAmount = amount.Abs()
	tx.GrossAmount = amount.Abs()
	cerr := &models.ClassificationError{Source: Source, Line: raw.Line, Label: strings.TrimSpace(raw.Description)}
	diag := cerr.Diagnostic()
	return tx, &diag
}

func isCommissionRow(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "comissões de transação") || strings.Contains(lower, "custo de conectividade")
}

// commissionForOrder sums the commission rows booked under the same order ID.
func commissionForOrder(orderID string, raws []rawRecord) decimal.Decimal {
	if orderID == "" {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, raw := range raws {
		if raw.OrderID != orderID || !isCommissionRow(raw.Description) {
			continue
		}
		amount, err := utils.ParseDotDecimal(raw.Amount)
		if err != nil {
			continue
		}
		total = total.Add(amount.Abs())
	}
	return total
}

func parseCommaDecimal(raw string) decimal.Decimal {
	d, err := utils.ParseGermanDecimal(strings.ReplaceAll(raw, " ", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
