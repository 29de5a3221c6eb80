package smoke

import "time"

// Default run parameters.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultWait         = 60 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// Generated uploads use ids from here up so they never collide with the
// default roster.
const uploadIDBase = 1000
