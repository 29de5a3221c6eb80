// Package smoke drives a deployed or local pipeline end to end: seed the
// roster through the gateway, wait for ingestion, compare the table.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/types"
	"github.com/okian/acolyte/pkg/logger"
)

// Run executes the complete smoke test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("smoke")
	client := newHTTPClient(config.Timeout)

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("upload", config.Upload),
		logger.Duration("wait", config.Wait),
	)

	// Step 1: Check service health
	if !config.SkipHealth {
		if err := checkServiceHealth(ctx, client, config); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
	}

	// Step 2: Seed the default roster
	want := expectation{}
	ack, err := seedRoster(ctx, client, config)
	if err != nil {
		return stats, fmt.Errorf("seed failed: %w", err)
	}
	for _, w := range ack.Records {
		want.add(w.Warrior())
	}
	stats.Seeded = len(ack.Records)
	log.Info(ctx, "roster seeded", logger.String("key", ack.Key), logger.Int("records", stats.Seeded))

	// Step 3: Upload generated warriors
	if config.Upload > 0 {
		warriors := generateWarriors(config.Upload)
		up, err := uploadWarriors(ctx, client, config, warriors)
		if err != nil {
			return stats, fmt.Errorf("upload failed: %w", err)
		}
		want.add(warriors...)
		stats.Uploaded = len(warriors)
		log.Info(ctx, "warriors uploaded", logger.String("key", up.Key), logger.Int("records", stats.Uploaded))
	}

	// Step 4: Wait for ingestion
	items, err := waitForRecords(ctx, client, config, want, stats)
	if err != nil {
		return stats, err
	}

	// Step 5: Verify results
	if err := verifyResults(want, items, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_ = resp.Body.Close()

	// The endpoint serves Prometheus metrics; any 200 means healthy.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz answered %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

func seedRoster(ctx context.Context, client *HTTPClient, config *Config) (types.SeedAck, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/warriors")
	if err != nil {
		return types.SeedAck{}, err
	}
	var ack types.SeedAck
	return ack, decodeJSON(resp, &ack)
}

func uploadWarriors(ctx context.Context, client *HTTPClient, config *Config, warriors []model.Warrior) (types.SeedAck, error) {
	wire := make([]model.WireWarrior, len(warriors))
	for i, w := range warriors {
		wire[i] = w.Wire()
	}
	resp, err := client.Post(ctx, config.BaseURL+"/warriors", wire)
	if err != nil {
		return types.SeedAck{}, err
	}
	var ack types.SeedAck
	return ack, decodeJSON(resp, &ack)
}

// waitForRecords polls /records until every expected record matches or the
// wait runs out. On timeout the last listing is still returned so the
// caller can report what is missing.
func waitForRecords(ctx context.Context, client *HTTPClient, config *Config, want expectation, stats *Stats) ([]model.Item, error) {
	log := logger.Named("smoke")
	ctx, cancel := context.WithTimeout(ctx, config.Wait)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	var last []model.Item
	for {
		resp, err := client.Get(ctx, config.BaseURL+"/records")
		if err == nil {
			var list types.RecordList
			if err = decodeJSON(resp, &list); err == nil {
				last = list.Items
			}
		}
		stats.Polls++
		missing, mismatched := want.diff(last)
		log.Debug(ctx, "polled records",
			logger.Int("items", len(last)),
			logger.Int("missing", len(missing)),
			logger.Int("mismatched", len(mismatched)),
			logger.Error(err),
		)
		if err == nil && len(missing) == 0 && len(mismatched) == 0 {
			return last, nil
		}

		select {
		case <-ctx.Done():
			if last == nil && err != nil {
				return nil, fmt.Errorf("%w: %w", ErrNotIngested, err)
			}
			return last, nil
		case <-ticker.C:
		}
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Named("smoke").Info(ctx, "smoke run passed",
		logger.Int("seeded", stats.Seeded),
		logger.Int("uploaded", stats.Uploaded),
		logger.Int("verified", stats.Verified),
		logger.Int("polls", stats.Polls),
		logger.Duration("duration", stats.Duration),
	)
}
