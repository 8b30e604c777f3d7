// backend/src/models/errors.go
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiagnosticKind classifies the recoverable problems collected during a run.
type DiagnosticKind string

const (
	DiagParseError          DiagnosticKind = "parse_error"
	DiagUnrecognizedLabel   DiagnosticKind = "unrecognized_label"
	DiagOversell            DiagnosticKind = "oversell"
	DiagNonPositiveProceeds DiagnosticKind = "non_positive_proceeds"
	DiagDuplicateDropped    DiagnosticKind = "duplicate_dropped"
)

// Diagnostic is the report-facing record of a skipped or flagged row. Per-record
// problems are collected, never thrown out of the pipeline, so the final report
// can enumerate them and silent data loss cannot occur.
type Diagnostic struct {
	Kind      DiagnosticKind  `json:"kind"`
	Source    string          `json:"source,omitempty"`
	Line      int             `json:"line,omitempty"`
	ISIN      string          `json:"isin,omitempty"`
	Date      string          `json:"date,omitempty"`
	Message   string          `json:"message"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// ParseError describes a malformed raw record. The row is skipped and the
// ingestion continues.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", e.Source, e.Line, e.Reason)
}

// Diagnostic converts the error into its report representation.
func (e *ParseError) Diagnostic() Diagnostic {
	return Diagnostic{Kind: DiagParseError, Source: e.Source, Line: e.Line, Message: e.Reason}
}

// ClassificationError describes a transaction label no mapping table knows. The
// transaction is surfaced as uncategorized rather than dropped.
type ClassificationError struct {
	Source string
	Line   int
	Label  string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s: line %d: unrecognized transaction label %q", e.Source, e.Line, e.Label)
}

func (e *ClassificationError) Diagnostic() Diagnostic {
	return Diagnostic{Kind: DiagUnrecognizedLabel, Source: e.Source, Line: e.Line,
		Message: fmt.Sprintf("unrecognized transaction label %q, kept as uncategorized", e.Label)}
}

// ReconciliationError reports a sell exceeding the instrument's open quantity.
// It is a per-instrument fault: the engine clamps the instrument to zero and
// keeps processing everything else.
type ReconciliationError struct {
	ISIN      string
	Date      time.Time
	Shortfall decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s: sell on %s exceeds open quantity by %s",
		e.ISIN, e.Date.Format("2006-01-02"), e.Shortfall.String())
}

func (e *ReconciliationError) Diagnostic() Diagnostic {
	return Diagnostic{
		Kind:      DiagOversell,
		ISIN:      e.ISIN,
		Date:      e.Date.Format("2006-01-02"),
		Message:   e.Error(),
		Shortfall: e.Shortfall,
	}
}
