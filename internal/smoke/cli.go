package smoke

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/acolyte/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging logs to stdout and, when logFile is set, to that file too.
// The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	os.Stdout.WriteString(`Acolyte Smoke Tool
==================

Seeds the default roster through the gateway, waits for the ingestion
function to fill the table and checks every record field by field.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the gateway (default "http://localhost:9080")
  -upload int
        Generated warriors to POST after the seed (default 0)
  -timeout duration
        HTTP request timeout (default 10s)
  -wait duration
        How long ingestion may take (default 1m0s)
  -poll duration
        Delay between /records polls (default 500ms)
  -skip-health
        Do not call /healthz first
  -log string
        Also write logs to this file
  -verbose
        Log every poll
  -help
        Show this help message

Examples:
  # Local stack
  go run ./cmd/smoke

  # Deployed stage, with an extra upload
  go run ./cmd/smoke -url https://abc123.execute-api.ap-south-1.amazonaws.com/dev -skip-health -upload 20
`)
}
