// Command ingest is the Ingestion Lambda: it drains SQS batches of bucket
// create events and upserts every record of each object into the table.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/okian/acolyte/internal/adapters/awscfg"
	"github.com/okian/acolyte/internal/bootstrap"
	"github.com/okian/acolyte/pkg/logger"
)

func main() {
	ctx := context.Background()

	cfg, log, err := bootstrap.Init(ctx, "ingest")
	if err != nil {
		os.Stderr.WriteString("failed to initialize: " + err.Error() + "\n")
		os.Exit(1)
	}
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "aws config", logger.Error(err))
	}

	h, err := bootstrap.IngestFunction(cfg, awscfg.NewS3(awsCfg, cfg), awscfg.NewDynamoDB(awsCfg, cfg))
	if err != nil {
		log.Fatal(ctx, "ingest function", logger.Error(err))
	}
	log.Info(ctx, "ingest function ready",
		logger.String("table", cfg.Table),
		logger.String("failureMode", cfg.FailureMode),
	)
	lambda.Start(h.Handle)
}
