// backend/src/parsers/ibkr/parser.go
package ibkr

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradereport/backend/src/models"
)

// Source identifies the IBKR Flex Query XML export format.
const Source = "ibkr"

// --- XML data structures ---

// FlexQueryResponse is the root element of the IBKR Flex Query report.
type FlexQueryResponse struct {
	XMLName        xml.Name        `xml:"FlexQueryResponse"`
	FlexStatements []FlexStatement `xml:"FlexStatements>FlexStatement"`
}

// FlexStatement contains all the data for a given account and period.
type FlexStatement struct {
	XMLName          xml.Name          `xml:"FlexStatement"`
	AccountId        string            `xml:"accountId,attr"`
	Trades           []Trade           `xml:"Trades>Trade"`
	CashTransactions []CashTransaction `xml:"CashTransactions>CashTransaction"`
}

// Trade represents a stock or option trade transaction.
type Trade struct {
	AssetCategory string          `xml:"assetCategory,attr"`
	Symbol        string          `xml:"symbol,attr"`
	Description   string          `xml:"description,attr"`
	ISIN          string          `xml:"isin,attr"`
	DateTime      string          `xml:"dateTime,attr"`
	Quantity      decimal.Decimal `xml:"quantity,attr"`
	TradePrice    decimal.Decimal `xml:"tradePrice,attr"`
	TradeMoney    decimal.Decimal `xml:"tradeMoney,attr"`
	Currency      string          `xml:"currency,attr"`
	Exchange      string          `xml:"exchange,attr"`
	IBCommission  decimal.Decimal `xml:"ibCommission,attr"`
	BuySell       string          `xml:"buySell,attr"`
	IBOrderID     string          `xml:"ibOrderID,attr"`
}

// CashTransaction represents dividends, withholding tax, and cash movements.
type CashTransaction struct {
	Type          string          `xml:"type,attr"`
	Description   string          `xml:"description,attr"`
	DateTime      string          `xml:"dateTime,attr"`
	Amount        decimal.Decimal `xml:"amount,attr"`
	Currency      string          `xml:"currency,attr"`
	LevelOfDetail string          `xml:"levelOfDetail,attr"`
	ISIN          string          `xml:"isin,attr"`
	Symbol        string          `xml:"symbol,attr"`
}

// IBKRParser implements the parsers.Parser interface for Flex Query XML files.
type IBKRParser struct{}

func NewParser() *IBKRParser {
	return &IBKRParser{}
}

// Parse reads an IBKR XML file and normalizes its records.
func (p *IBKRParser) Parse(file io.Reader) (*models.ParseResult, error) {
	var response FlexQueryResponse
	decoder := xml.NewDecoder(file)
	if err := decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("ibkr parser: failed to decode XML: %w", err)
	}

	result := &models.ParseResult{}
	line := 0

	for _, stmt := range response.FlexStatements {
		for _, trade := range stmt.Trades {
			line++
			// Internal currency exchanges are not portfolio activity.
			if trade.Exchange == "IDEALFX" {
				continue
			}
			tx, issue := p.normalizeTrade(trade, line)
			if issue != nil {
				result.Issues = append(result.Issues, *issue)
				if tx == nil {
					continue
				}
			}
			result.Transactions = append(result.Transactions, *tx)
		}

		for _, cashTx := range stmt.CashTransactions {
			line++
			// Only detailed records; summary lines would double-count.
			if cashTx.LevelOfDetail != "DETAIL" {
				continue
			}
			tx, issue := p.normalizeCash(cashTx, line)
			if issue != nil {
				result.Issues = append(result.Issues, *issue)
			}
			if tx != nil {
				result.Transactions = append(result.Transactions, *tx)
			}
		}
	}

	return result, nil
}

// normalizeTrade converts an IBKR Trade record into a canonical transaction.
// The second return value carries a diagnostic; a nil transaction with a
// diagnostic means the record was skipped.
func (p *IBKRParser) normalizeTrade(trade Trade, line int) (*models.Transaction, *models.Diagnostic) {
	date, err := parseIBKRDateTime(trade.DateTime)
	if err != nil {
		perr := &models.ParseError{Source: Source, Line: line, Reason: err.Error()}
		diag := perr.Diagnostic()
		return nil, &diag
	}

	tx := models.Transaction{
		Source:      Source,
		Date:        date,
		ISIN:        trade.ISIN,
		ProductName: trade.Description,
		Quantity:    trade.Quantity.Abs(),
		UnitPrice:   trade.TradePrice,
		Fees:        trade.IBCommission.Abs(),
		GrossAmount: trade.TradeMoney.Abs(),
		Currency:    trade.Currency,
		Line:        line,
	}

	if trade.AssetCategory != "STK" {
		// Options and other asset categories fall outside the canonical set.
		tx.Type = models.TypeUncategorized
		tx.NetAmount = tx.GrossAmount
		cerr := &models.ClassificationError{Source: Source, Line: line,
			Label: fmt.Sprintf("%s trade: %s", strings.ToLower(trade.AssetCategory), trade.Symbol)}
		diag := cerr.Diagnostic()
		return &tx, &diag
	}

	if strings.EqualFold(trade.BuySell, "BUY") {
		tx.Type = models.TypeOrderBuy
		tx.NetAmount = tx.GrossAmount.Add(tx.Fees)
	} else {
		tx.Type = models.TypeOrderSell
		tx.NetAmount = tx.GrossAmount.Sub(tx.Fees)
	}
	return &tx, nil
}

// normalizeCash converts dividend, withholding tax, and cash movement records.
// Unhandled cash transaction types are ignored, matching the Flex report types
// requested by the exporter.
func (p *IBKRParser) normalizeCash(cashTx CashTransaction, line int) (*models.Transaction, *models.Diagnostic) {
	date, err := parseIBKRDateTime(cashTx.DateTime)
	if err != nil {
		perr := &models.ParseError{Source: Source, Line: line, Reason: err.Error()}
		diag := perr.Diagnostic()
		return nil, &diag
	}

	tx := models.Transaction{
		Source:      Source,
		Date:        date,
		ISIN:        cashTx.ISIN,
		ProductName: cashTx.Symbol,
		Currency:    cashTx.Currency,
		NetAmount:   cashTx.Amount.Abs(),
		GrossAmount: cashTx.Amount.Abs(),
		Line:        line,
	}

	switch cashTx.Type {
	case "Dividends":
		tx.Type = models.TypeDividend
	case "Withholding Tax":
		tx.Type = models.TypeTaxAdjustment
		tx.Tax = cashTx.Amount.Neg() // negative cash = tax withheld
	case "Deposits/Withdrawals":
		if cashTx.Amount.IsNegative() {
			tx.Type = models.TypeWithdrawal
		} else {
			tx.Type = models.TypeDeposit
		}
		tx.ProductName = "Cash Transfer"
	default:
		return nil, nil
	}
	return &tx, nil
}

// parseIBKRDateTime converts IBKR's "YYYYMMDD;HHMMSS" format to a calendar date.
func parseIBKRDateTime(datetime string) (time.Time, error) {
	layout := "20060102;150405"
	if !strings.Contains(datetime, ";") {
		layout = "20060102"
	}
	t, err := time.Parse(layout, datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse ibkr datetime '%s': %w", datetime, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
