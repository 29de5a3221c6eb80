package repository

import "time"

// Option applies a configuration option to the MemoryTable.
type Option func(*MemoryTable)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryTable) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// DynamoOption applies a configuration option to the DynamoTable.
type DynamoOption func(*DynamoTable)

// WithConsistentReads makes Get and List strongly consistent.
func WithConsistentReads(on bool) DynamoOption {
	return func(t *DynamoTable) {
		t.consistent = on
	}
}
