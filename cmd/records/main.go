// Command records is the read Lambda behind GET /records, GET /records/{id}
// and GET /fetchWarriors.
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

	cfg, log, err := bootstrap.Init(ctx, "records")
	if err != nil {
		os.Stderr.WriteString("failed to initialize: " + err.Error() + "\n")
		os.Exit(1)
	}
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "aws config", logger.Error(err))
	}

	h := bootstrap.RecordsFunction(cfg, awscfg.NewDynamoDB(awsCfg, cfg))
	log.Info(ctx, "records function ready", logger.String("table", cfg.Table))
	lambda.Start(h.Handle)
}
