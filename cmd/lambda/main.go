package main

import (
	"context"
	"log"

	"retrain-orchestrator/config"
	"retrain-orchestrator/core/models"
	"retrain-orchestrator/core/repository"
	"retrain-orchestrator/core/trigger"
	awsprovider "retrain-orchestrator/providers/aws"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	client, err := awsprovider.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to create AWS client: %v", err)
	}

	var locks trigger.LockStore
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		lockRepo := repository.NewExecutionLockRepository(db)
		if err := lockRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare lock table: %v", err)
		}
		locks = lockRepo
	}

	// A missing PIPELINE_NAME is reported per invocation as a 500 response
	// rather than failing cold start, so the error reaches the event layer.
	handler := trigger.NewHandler(client, locks, cfg.PipelineName)

	lambda.Start(func(ctx context.Context, event models.TriggerEvent) (models.TriggerResponse, error) {
		return handler.Handle(ctx, event), nil
	})
}
