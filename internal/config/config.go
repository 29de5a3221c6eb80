// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// Failure modes for the ingestion function. See Config.FailureMode.
const (
	FailureSignal  = "signal"
	FailureReport  = "report"
	FailureSwallow = "swallow"
)

// Config contains process configuration shared by the Lambda functions and the local stack.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json. Lambda functions default to json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the local gateway listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Region and EndpointURL configure the AWS clients. EndpointURL points the
	// clients at an emulator such as LocalStack and switches S3 to path style.
	Region      string `koanf:"region"`
	EndpointURL string `koanf:"endpoint_url"`

	// Bucket is the object store bucket the seed function writes to.
	Bucket string `koanf:"bucket"`

	// SeedKey is the well-known object key of the default roster.
	SeedKey string `koanf:"seed_key"`

	// RosterFile optionally replaces the built-in roster with a JSON file in
	// payload shape.
	RosterFile string `koanf:"roster_file"`

	// UploadPrefix prefixes per-upload object keys for posted record lists.
	UploadPrefix string `koanf:"upload_prefix"`

	// Table is the record table name.
	Table string `koanf:"table"`

	// BatchSize caps the number of queue messages per ingestion batch.
	BatchSize int `koanf:"batch_size"`

	// BatchWindowMS is how long the local consumer waits to fill a batch.
	BatchWindowMS int `koanf:"batch_window_ms"`

	// FailureMode decides how ingestion faults reach the queue:
	// signal (error, whole batch redelivered), report (partial batch
	// failures) or swallow (logged, batch acknowledged).
	FailureMode string `koanf:"failure_mode"`

	// MaxReceiveCount is how many deliveries a message gets before the local
	// queue moves it to the dead-letter list.
	MaxReceiveCount int `koanf:"max_receive_count"`

	// QueueSize bounds the local in-memory queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of local queue consumers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the message-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// OpTimeoutMS bounds every object read and table write.
	OpTimeoutMS int `koanf:"op_timeout_ms"`

	// DeadlineMarginMS is kept back from the invocation deadline so a
	// timed-out operation can still be reported.
	DeadlineMarginMS int `koanf:"deadline_margin_ms"`

	// CORSAllowOrigin is the single origin allowed by both gateway surfaces.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`

	// CORSAllowCredentials toggles Access-Control-Allow-Credentials.
	CORSAllowCredentials bool `koanf:"cors_allow_credentials"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		Region:               "ap-south-1",
		Bucket:               "acolyte-warriors",
		SeedKey:              "ACOLYTE_WARRIORS",
		UploadPrefix:         "uploads/",
		Table:                "warriors",
		BatchSize:            10,
		BatchWindowMS:        200,
		FailureMode:          FailureSignal,
		MaxReceiveCount:      3,
		QueueSize:            10_000,
		WorkerCount:          1,
		DedupeSize:           10_000,
		OpTimeoutMS:          5_000,
		DeadlineMarginMS:     500,
		CORSAllowOrigin:      "http://localhost:3000",
		CORSAllowCredentials: true,
	}
}

// OpTimeout returns OpTimeoutMS as a duration.
func (c *Config) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutMS) * time.Millisecond
}

// DeadlineMargin returns DeadlineMarginMS as a duration.
func (c *Config) DeadlineMargin() time.Duration {
	return time.Duration(c.DeadlineMarginMS) * time.Millisecond
}

// BatchWindow returns BatchWindowMS as a duration.
func (c *Config) BatchWindow() time.Duration {
	return time.Duration(c.BatchWindowMS) * time.Millisecond
}
