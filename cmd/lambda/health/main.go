// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"tax-credit-engine/internal/config"
	"tax-credit-engine/internal/handlers"
	"tax-credit-engine/internal/services/database"
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

	// A missing database degrades the report instead of failing cold start.
	var handler *handlers.HealthHandler
	db, err := database.New(context.Background(), cfg)
	if err != nil {
		utils.GetLogger().Warn("Database unavailable for health checks", zap.Error(err))
		handler = handlers.NewHealthHandler(nil)
	} else {
		defer db.Close()
		handler = handlers.NewHealthHandler(db)
	}

	lambda.Start(handler.Handle)
}
