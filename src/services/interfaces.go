// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/tradereport/backend/src/models"
)

var (
	// ErrParsingFailed wraps file-level failures (unknown source, unreadable
	// file). Row-level problems never surface here; they become diagnostics.
	ErrParsingFailed = errors.New("error parsing input file")
	// ErrNoUsableData aborts a run whose input set is empty or entirely
	// unparseable; no meaningful report is possible.
	ErrNoUsableData = errors.New("no usable transactions in input")
)

// SourceInput is one export file tagged with its source format.
type SourceInput struct {
	Source string
	Reader io.Reader
}

// ReportService runs the batch pipeline: normalize, deduplicate, reconcile,
// aggregate, build report. It keeps no state between runs beyond a cache of
// finished reports.
type ReportService interface {
	// GenerateReport processes a closed batch of inputs in one run.
	GenerateReport(inputs []SourceInput) (*models.Report, error)
	// ProcessUpload handles a single uploaded file, serving repeated uploads
	// of identical content from cache.
	ProcessUpload(file io.Reader, source string) (*models.Report, error)
}
