// Command smoke seeds the roster through a gateway and checks that the
// ingestion pipeline filled the table with the same records.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/acolyte/internal/smoke"
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the gateway")
		upload     = flag.Int("upload", 0, "Generated warriors to POST after the seed")
		timeout    = flag.Duration("timeout", smoke.DefaultTimeout, "HTTP request timeout")
		wait       = flag.Duration("wait", smoke.DefaultWait, "How long ingestion may take")
		poll       = flag.Duration("poll", smoke.DefaultPollInterval, "Delay between /records polls")
		skipHealth = flag.Bool("skip-health", false, "Do not call /healthz first")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every poll")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	closer, err := smoke.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &smoke.Config{
		BaseURL:      *baseURL,
		Upload:       *upload,
		Timeout:      *timeout,
		Wait:         *wait,
		PollInterval: *poll,
		SkipHealth:   *skipHealth,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}
	if _, err := smoke.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
