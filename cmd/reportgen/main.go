// Command reportgen runs the reconciliation pipeline over one or more broker
// export files and writes the resulting report as JSON.
//
// Usage:
//
//	reportgen -in zero=kontoumsaetze.csv -in degiro=account.csv -out report.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/username/tradereport/backend/src/logger"
	"github.com/username/tradereport/backend/src/parsers"
	"github.com/username/tradereport/backend/src/processors"
	"github.com/username/tradereport/backend/src/services"
)

// inputList collects repeatable -in flags of the form source=path.
type inputList []string

func (l *inputList) String() string { return strings.Join(*l, ", ") }

func (l *inputList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected source=path, got %q (sources: %s)", value, strings.Join(parsers.Sources(), ", "))
	}
	*l = append(*l, value)
	return nil
}

func main() {
	var inputs inputList
	flag.Var(&inputs, "in", "input file as source=path (repeatable)")
	outPath := flag.String("out", "-", "output path for the report JSON ('-' for stdout)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.InitLogger(*logLevel)

	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "reportgen: no inputs given, use -in source=path")
		flag.Usage()
		os.Exit(2)
	}

	var sourceInputs []services.SourceInput
	var files []*os.File
	for _, in := range inputs {
		parts := strings.SplitN(in, "=", 2)
		file, err := os.Open(parts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "reportgen: %v\n", err)
			os.Exit(1)
		}
		files = append(files, file)
		sourceInputs = append(sourceInputs, services.SourceInput{Source: parts[0], Reader: file})
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	reportService := services.NewReportService(
		processors.NewDeduplicator(),
		processors.NewPositionProcessor(),
		processors.NewStatisticsProcessor(),
		nil, // one-shot run, no report cache
	)

	report, err := reportService.GenerateReport(sourceInputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reportgen: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "-" {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reportgen: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "reportgen: writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "reportgen: %d transactions, %d closed trades, %d open positions, %d diagnostics\n",
		len(report.Transactions), len(report.ClosedTrades), len(report.Positions), len(report.Diagnostics))
}
