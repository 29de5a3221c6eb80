// Command seed is the Seed Lambda: GET /warriors writes the default roster
// to the bucket, POST /warriors writes an uploaded record list.
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

	cfg, log, err := bootstrap.Init(ctx, "seed")
	if err != nil {
		os.Stderr.WriteString("failed to initialize: " + err.Error() + "\n")
		os.Exit(1)
	}
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "aws config", logger.Error(err))
	}

	h, err := bootstrap.SeedFunction(cfg, awscfg.NewS3(awsCfg, cfg))
	if err != nil {
		log.Fatal(ctx, "seed function", logger.Error(err))
	}
	log.Info(ctx, "seed function ready", logger.String("bucket", cfg.Bucket), logger.String("key", cfg.SeedKey))
	lambda.Start(h.Handle)
}
