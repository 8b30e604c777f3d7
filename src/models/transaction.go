// backend/src/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of canonical transaction classifications.
// Every parser maps its source-specific labels onto these values; the rest of
// the pipeline never branches on the source format.
type TransactionType string

const (
	TypeOrderBuy           TransactionType = "order_buy"
	TypeOrderSell          TransactionType = "order_sell"
	TypeSavingsPlanBuy     TransactionType = "savings_plan_buy"
	TypeFractionalBuy      TransactionType = "fractional_buy"
	TypeDividend           TransactionType = "dividend"
	TypeTaxAdjustment      TransactionType = "tax_adjustment"
	TypeDeposit            TransactionType = "deposit"
	TypeWithdrawal         TransactionType = "withdrawal"
	TypeKnockoutSettlement TransactionType = "knockout_settlement"

	// TypeUncategorized marks rows whose label could not be classified. They are
	// kept in the transaction list (never silently dropped) but do not touch lots.
	TypeUncategorized TransactionType = "uncategorized"
)

// IsBuy reports whether the type opens a new purchase lot.
func (t TransactionType) IsBuy() bool {
	return t == TypeOrderBuy || t == TypeSavingsPlanBuy || t == TypeFractionalBuy
}

// IsSell reports whether the type consumes open lots. Knock-out settlements are
// forced sells at the broker-determined settlement value.
func (t TransactionType) IsSell() bool {
	return t == TypeOrderSell || t == TypeKnockoutSettlement
}

// IsTrade reports whether the type counts towards traded volume. Knock-out
// settlements are excluded: they are forced closings, not placed orders.
func (t TransactionType) IsTrade() bool {
	return t.IsBuy() || t == TypeOrderSell
}

// Transaction is the unified representation every parser emits into. It is
// treated as immutable once normalized.
//
// Amount conventions: Quantity, GrossAmount, NetAmount and Fees are always
// non-negative; direction is encoded solely via Type. Tax is signed (positive =
// withheld, negative = refunded). For buys NetAmount = GrossAmount + Fees, for
// sells NetAmount = GrossAmount - Fees - Tax. Sources that do not break fees
// out of the booked amount emit Fees = 0 and GrossAmount = NetAmount.
type Transaction struct {
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Fees        decimal.Decimal `json:"fees"`
	Tax         decimal.Decimal `json:"tax"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	Currency    string          `json:"currency"`
	Source      string          `json:"source"`

	// Line is the 1-based row/record number in the source file.
	Line int `json:"line"`
	// Seq is the global ingestion order, assigned by the pipeline. It breaks
	// same-day ordering ties deterministically.
	Seq int `json:"seq"`
	// DedupKey is the stable fingerprint used by the deduplicator.
	DedupKey string `json:"dedup_key"`
}

// ParseResult is what a parser hands back: the transactions it could normalize
// plus a diagnostic per row it could not. Malformed rows never abort a parse.
type ParseResult struct {
	Transactions []Transaction
	Issues       []Diagnostic
}
