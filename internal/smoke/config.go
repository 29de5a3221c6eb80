package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL      string        // Base URL of the gateway
	Upload       int           // Generated warriors posted after the seed; 0 skips the upload
	Timeout      time.Duration // HTTP request timeout
	Wait         time.Duration // How long ingestion may take
	PollInterval time.Duration // Delay between /records polls
	SkipHealth   bool          // Skip /healthz (API Gateway deployments have none)
	LogFile      string        // Optional log file next to stdout
	Verbose      bool          // Log every poll
}

// Stats holds run statistics.
type Stats struct {
	Seeded    int
	Uploaded  int
	Polls     int
	Verified  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
