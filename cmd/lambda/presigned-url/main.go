// Presigned URL Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"tax-credit-engine/internal/config"
	"tax-credit-engine/internal/handlers"
	s3service "tax-credit-engine/internal/services/s3"
	"tax-credit-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer utils.Sync()

	s3Svc, err := s3service.NewService(context.Background(), cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	handler := handlers.NewPresignedURLHandler(s3Svc)
	lambda.Start(handler.Handle)
}
