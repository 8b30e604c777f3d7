// backend/src/services/report_service.go
package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradereport/backend/src/logger"
	"github.com/username/tradereport/backend/src/models"
	"github.com/username/tradereport/backend/src/parsers"
	"github.com/username/tradereport/backend/src/processors"
	"github.com/username/tradereport/backend/src/security/validation"
)

const (
	// Reports keyed by content hash: identical re-uploads are cache hits.
	ckUploadReport = "report_upload_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	deduplicator        processors.Deduplicator
	positionProcessor   processors.PositionProcessor
	statisticsProcessor processors.StatisticsProcessor
	reportCache         *cache.Cache
}

func NewReportService(
	deduplicator processors.Deduplicator,
	positionProcessor processors.PositionProcessor,
	statisticsProcessor processors.StatisticsProcessor,
	reportCache *cache.Cache,
) ReportService {
	return &reportServiceImpl{
		deduplicator:        deduplicator,
		positionProcessor:   positionProcessor,
		statisticsProcessor: statisticsProcessor,
		reportCache:         reportCache,
	}
}

// GenerateReport runs the full batch pipeline. All inputs are normalized
// before deduplication and deduplication completes before reconciliation:
// duplicates and out-of-order buys may sit in a later file, so both stages
// need the whole input. Run state lives entirely on this stack frame.
func (s *reportServiceImpl) GenerateReport(inputs []SourceInput) (*models.Report, error) {
	startTime := time.Now()
	if logger.L != nil {
		logger.L.Info("GenerateReport START", "inputs", len(inputs))
	}

	var transactions []models.Transaction
	var diagnostics []models.Diagnostic
	var sources []string
	seenSources := make(map[string]bool)

	for _, input := range inputs {
		parser, err := parsers.GetParser(input.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
		}
		parsed, err := parser.Parse(input.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
		}
		diagnostics = append(diagnostics, parsed.Issues...)
		transactions = append(transactions, parsed.Transactions...)
		if !seenSources[input.Source] {
			seenSources[input.Source] = true
			sources = append(sources, input.Source)
		}
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("%w (%d diagnostics)", ErrNoUsableData, len(diagnostics))
	}

	// Ingestion order is the deterministic tie-breaker for same-day activity
	// and the dedup representative choice.
	for i := range transactions {
		transactions[i].Seq = i
		transactions[i].ProductName = validation.SanitizeText(transactions[i].ProductName)
	}

	deduped, dropped, dedupIssues := s.deduplicator.Process(transactions)
	diagnostics = append(diagnostics, dedupIssues...)

	recon := s.positionProcessor.Process(deduped)
	diagnostics = append(diagnostics, recon.Issues...)

	stats := s.statisticsProcessor.Aggregate(deduped, recon)

	report := processors.BuildReport(sources, deduped, recon, stats, diagnostics, dropped)

	if logger.L != nil {
		logger.L.Info("GenerateReport END",
			"transactions", len(deduped),
			"duplicatesDropped", dropped,
			"closedTrades", len(recon.ClosedTrades),
			"openPositions", len(recon.Positions),
			"diagnostics", len(diagnostics),
			"duration", time.Since(startTime))
	}
	return report, nil
}

// ProcessUpload reads the uploaded file fully (the pipeline requires a closed
// batch anyway) and serves byte-identical re-uploads from cache.
func (s *reportServiceImpl) ProcessUpload(file io.Reader, source string) (*models.Report, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrParsingFailed, err)
	}

	cacheKey := fmt.Sprintf(ckUploadReport, contentHash(source, content))
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(cacheKey); found {
			if logger.L != nil {
				logger.L.Info("Cache hit for uploaded report", "source", source)
			}
			return cached.(*models.Report), nil
		}
	}

	report, err := s.GenerateReport([]SourceInput{{Source: source, Reader: bytes.NewReader(content)}})
	if err != nil {
		return nil, err
	}
	if s.reportCache != nil {
		s.reportCache.Set(cacheKey, report, DefaultCacheExpiration)
	}
	return report, nil
}

func contentHash(source string, content []byte) string {
	hash := sha256.New()
	hash.Write([]byte(source))
	hash.Write([]byte{0})
	hash.Write(content)
	return hex.EncodeToString(hash.Sum(nil))
}
