// Package bootstrap assembles the Lambda functions from configuration and
// AWS clients. Each cmd/<function> main is a thin wrapper around it.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/acolyte/internal/adapters/gateway"
	"github.com/okian/acolyte/internal/adapters/mq/consumer"
	"github.com/okian/acolyte/internal/adapters/objectstore"
	"github.com/okian/acolyte/internal/adapters/repository"
	"github.com/okian/acolyte/internal/config"
	"github.com/okian/acolyte/internal/domain/dedupe"
	"github.com/okian/acolyte/internal/domain/ingest"
	"github.com/okian/acolyte/internal/domain/seed"
	"github.com/okian/acolyte/pkg/logger"
)

// Init loads the configuration and the logger of a function. Functions log
// JSON unless WARRIORS_LOG_FORMAT says otherwise.
func Init(ctx context.Context, function string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	format := logger.FormatJSON
	if _, ok := os.LookupEnv(config.EnvPrefix + "LOG_FORMAT"); ok {
		format = cfg.LogFormat
	}
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Named(function)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// SeedFunction builds the /warriors handler over the bucket.
func SeedFunction(cfg *config.Config, s3 objectstore.S3API) (*gateway.SeedHandler, error) {
	roster, err := seed.ReadRoster(cfg.RosterFile)
	if err != nil {
		return nil, err
	}
	store := objectstore.NewS3Store(s3, cfg.Bucket)
	seeder := seed.New(store,
		seed.WithRoster(roster),
		seed.WithSeedKey(cfg.SeedKey),
		seed.WithUploadPrefix(cfg.UploadPrefix),
	)
	return gateway.NewSeedHandler(seeder, gateway.SeedCORS(cfg.CORSAllowOrigin, cfg.CORSAllowCredentials)), nil
}

// IngestFunction builds the SQS handler. The deduper lives as long as the
// warm container does.
func IngestFunction(cfg *config.Config, s3 objectstore.S3API, db repository.DynamoAPI) (*consumer.Handler, error) {
	ingestor := ingest.New(
		objectstore.NewS3Store(s3, cfg.Bucket),
		repository.NewDynamoTable(db, cfg.Table),
		ingest.WithOpTimeout(cfg.OpTimeout()),
		ingest.WithDeadlineMargin(cfg.DeadlineMargin()),
	)
	return consumer.New(ingestor,
		consumer.WithFailureMode(cfg.FailureMode),
		consumer.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
	)
}

// RecordsFunction builds the /records handler over the table. Reads are
// strongly consistent so a record is visible as soon as ingestion wrote it.
func RecordsFunction(cfg *config.Config, db repository.DynamoAPI) *gateway.RecordsHandler {
	table := repository.NewDynamoTable(db, cfg.Table, repository.WithConsistentReads(true))
	return gateway.NewRecordsHandler(table, gateway.RecordsCORS(cfg.CORSAllowOrigin, cfg.CORSAllowCredentials))
}
