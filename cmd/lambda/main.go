// Package main serves the products API from AWS Lambda behind an API Gateway
// proxy integration.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Benjuxx2303/products-api/app"
	"github.com/Benjuxx2303/products-api/app/apigw"
	"github.com/Benjuxx2303/products-api/config"
	"github.com/Benjuxx2303/products-api/docstore"
	"github.com/Benjuxx2303/products-api/models"
)

func main() {
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg := config.Load()
	level.Set(cfg.LogLevel)

	// The store lives as long as the execution environment. lambda.Start never
	// returns, so it is not closed here.
	store, err := docstore.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("store_open_failed", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	router := app.NewRouter(cfg.BasePath, models.NewProductsRepository(store))
	logger.Info("lambda_starting", "store", cfg.Store.Driver, "base_path", cfg.BasePath)
	lambda.Start(apigw.Wrap(router))
}
