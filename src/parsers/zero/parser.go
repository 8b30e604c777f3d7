// backend/src/parsers/zero/parser.go
package zero

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

// Source identifies the ZERO Kontoumsätze CSV export format.
const Source = "zero"

// ZERO settles everything in EUR; the export carries no currency column.
const currency = "EUR"

// The whole classification lives in the free-text Verwendungszweck column.
var (
	orderRe    = regexp.MustCompile(`Order Nr (\d+) ISIN ([A-Z0-9]{12}) - (Kauf|Verkauf)\s+\((.+?)\s+ISIN [A-Z0-9]{12}\s+STK\s+([\d,.\s]+)`)
	sparplanRe = regexp.MustCompile(`Sparplan-Order zu ISIN ([A-Z0-9]{12}) - (Kauf|Verkauf)\s+\((.+?)\s+ISIN [A-Z0-9]{12}\s+STK\s+([\d,.\s]+)`)
	bruchRe    = regexp.MustCompile(`Bruchstücke-Order zu ISIN ([A-Z0-9]{12}) - (Kauf|Verkauf)\s+\((.+?)\s+ISIN [A-Z0-9]{12}\s+STK\s+([\d,.\s]+)`)
	wpRe       = regexp.MustCompile(`WP-Abrechnung Verkauf:.*?ISIN ([A-Z0-9]{12})\s+STK\s+([\d,.\s]+)`)
	isinRe     = regexp.MustCompile(`ISIN ([A-Z0-9]{12})`)
)

type ZeroParser struct{}

func NewParser() *ZeroParser {
	return &ZeroParser{}
}

// Parse reads a semicolon-delimited Kontoumsätze CSV. Dates are DD.MM.YYYY,
// amounts use the decimal comma, and the booked amount (Betrag) is negative
// for purchases and positive for credits.
func (p *ZeroParser) Parse(file io.Reader) (*models.ParseResult, error) {
	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("zero parser: failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		// Exports written by Windows tooling start with a UTF-8 BOM.
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		cols[strings.ToLower(name)] = i
	}
	datumCol, okDate := cols["datum"]
	betragCol, okAmount := cols["betrag"]
	zweckCol, okZweck := cols["verwendungszweck"]
	if !okDate || !okAmount || !okZweck {
		return nil, fmt.Errorf("zero parser: missing required columns (Datum, Betrag, Verwendungszweck) in header %v", header)
	}

	result := &models.ParseResult{}
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			perr := &models.ParseError{Source: Source, Line: line, Reason: fmt.Sprintf("unreadable CSV record: %v", err)}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}
		if len(record) <= datumCol || len(record) <= betragCol || len(record) <= zweckCol {
			perr := &models.ParseError{Source: Source, Line: line, Reason: "record has too few fields"}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}

		date, err := utils.ParseCalendarDate(record[datumCol], utils.GermanDateFormat)
		if err != nil {
			perr := &models.ParseError{Source: Source, Line: line, Reason: err.Error()}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}
		betrag, err := utils.ParseGermanDecimal(record[betragCol])
		if err != nil {
			perr := &models.ParseError{Source: Source, Line: line, Reason: err.Error()}
			result.Issues = append(result.Issues, perr.Diagnostic())
			continue
		}

		tx, issue := classifyPurpose(record[zweckCol], line)
		tx.Source = Source
		tx.Date = date
		tx.Currency = currency
		tx.Line = line
		fillAmounts(&tx, betrag)
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
		}
		result.Transactions = append(result.Transactions, tx)
	}

	return result, nil
}

// classifyPurpose maps the Verwendungszweck free text onto the canonical type
// set. Labels outside the canonical set come back as TypeUncategorized with a
// diagnostic so volume totals stay reconcilable.
func classifyPurpose(zweck string, line int) (models.Transaction, *models.Diagnostic) {
	var tx models.Transaction

	if m := orderRe.FindStringSubmatch(zweck); m != nil {
		tx.ISIN = m[2]
		tx.ProductName = strings.TrimSpace(m[4])
		tx.Quantity = parseQuantity(m[5])
		if m[3] == "Kauf" {
			tx.Type = models.TypeOrderBuy
		} else {
			tx.Type = models.TypeOrderSell
		}
		return tx, nil
	}
	if m := sparplanRe.FindStringSubmatch(zweck); m != nil {
		tx.ISIN = m[1]
		tx.ProductName = strings.TrimSpace(m[3])
		tx.Quantity = parseQuantity(m[4])
		if m[2] == "Kauf" {
			tx.Type = models.TypeSavingsPlanBuy
		} else {
			// A savings plan liquidation is an ordinary sell for matching.
			tx.Type = models.TypeOrderSell
		}
		return tx, nil
	}
	if m := bruchRe.FindStringSubmatch(zweck); m != nil {
		tx.ISIN = m[1]
		tx.ProductName = strings.TrimSpace(m[3])
		tx.Quantity = parseQuantity(m[4])
		if m[2] == "Kauf" {
			tx.Type = models.TypeFractionalBuy
		} else {
			tx.Type = models.TypeOrderSell
		}
		return tx, nil
	}
	if m := wpRe.FindStringSubmatch(zweck); m != nil {
		tx.Type = models.TypeKnockoutSettlement
		tx.ISIN = m[1]
		tx.Quantity = parseQuantity(m[2])
		return tx, nil
	}

	switch {
	case strings.Contains(zweck, "Gutschrift"), strings.Contains(zweck, "Lastschrift"):
		tx.Type = models.TypeDeposit
		return tx, nil
	case strings.Contains(zweck, "Auszahlung"):
		tx.Type = models.TypeWithdrawal
		return tx, nil
	case strings.Contains(zweck, "Coupons/Dividende"):
		tx.Type = models.TypeDividend
		if m := isinRe.FindStringSubmatch(zweck); m != nil {
			tx.ISIN = m[1]
		}
		return tx, nil
	case strings.Contains(zweck, "Steuerausgleich"), strings.Contains(zweck, "Vorabpauschale"):
		tx.Type = models.TypeTaxAdjustment
		if m := isinRe.FindStringSubmatch(zweck); m != nil {
			tx.ISIN = m[1]
		}
		return tx, nil
	}

	// Includes recognized-but-out-of-scope labels (e.g. KKT-Abschluss) and
	// anything genuinely unknown.
	tx.Type = models.TypeUncategorized
	cerr := &models.ClassificationError{Source: Source, Line: line, Label: truncateLabel(zweck)}
	diag := cerr.Diagnostic()
	return tx, &diag
}

// fillAmounts derives the unsigned amount fields from the signed Betrag. ZERO
// does not break fees or withheld tax out of the booked amount, so gross and
// net coincide and Fees stays zero.
func fillAmounts(tx *models.Transaction, betrag decimal.Decimal) {
	net := betrag.Abs()
	tx.NetAmount = net
	tx.GrossAmount = net
	if tx.Type == models.TypeTaxAdjustment {
		// Betrag is the cash effect: positive = refund, negative = charge.
		// The canonical Tax field is signed the other way (positive = withheld).
		tx.Tax = betrag.Neg()
	}
	if tx.Quantity.IsPositive() {
		tx.UnitPrice = net.Div(tx.Quantity)
	}
}

func parseQuantity(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	q, err := utils.ParseGermanDecimal(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return q
}

func truncateLabel(zweck string) string {
	zweck = strings.TrimSpace(zweck)
	if len(zweck) > 80 {
		return zweck[:80]
	}
	return zweck
}
