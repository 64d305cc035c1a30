package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/zhouzirui/z-research/backend/internal/app"
	lambdaHandler "github.com/zhouzirui/z-research/backend/internal/handler/lambda"
)

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	adapter, err := lambdaHandler.New(app.NewHandler(ctx, cfg))
	if err != nil {
		log.Fatalf("failed to create lambda adapter: %v", err)
	}

	lambda.Start(adapter.Handle)
}
