// CSV Processor Lambda entry point, triggered by uploads to the S3 bucket.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"tax-credit-engine/internal/config"
	"tax-credit-engine/internal/handlers"
	"tax-credit-engine/internal/services/assessor"
	"tax-credit-engine/internal/services/cache"
	"tax-credit-engine/internal/services/database"
	s3service "tax-credit-engine/internal/services/s3"
	"tax-credit-engine/internal/services/ses"
	"tax-credit-engine/internal/services/tax"
	"tax-credit-engine/internal/utils"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	s3Svc, err := s3service.NewService(ctx, cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	store := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword)
	defer store.Close()
	comparisons := cache.NewComparisons(tax.NewEngine(cfg.DeductionRules()), store, cfg.CacheTTL)

	var opts []assessor.Option
	if cfg.SESSenderEmail != "" {
		sesSvc, err := ses.NewService(ctx, cfg)
		if err != nil {
			logger.Warn("SES unavailable, recommendations will not be emailed", zap.Error(err))
		} else {
			opts = append(opts, assessor.WithNotifier(sesSvc, cfg.DashboardURL))
		}
	}

	handler := handlers.NewCSVProcessorHandler(s3Svc, assessor.NewService(comparisons, db.Assessments(), opts...))
	lambda.Start(handler.Handle)
}
