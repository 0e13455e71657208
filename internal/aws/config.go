package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

const defaultRegion = "us-east-1"

// LoadAWSConfig loads the shared AWS config. An empty region falls back to
// us-east-1; a non-empty endpoint (localstack and friends) overrides the
// service endpoints for every client built from the config.
func LoadAWSConfig(ctx context.Context, region, endpoint string) (sdkaws.Config, error) {
	if region == "" {
		region = defaultRegion
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
	}

	return cfg, nil
}

// Clients holds what the checkout binaries talk to: the idempotency table,
// the events queue and CloudWatch metrics.
type Clients struct {
	Idempotency DynamoDBAPI
	Events      SQSAPI
	Metrics     CloudWatchAPI
}

// NewClients builds every client from one config, so they share region and
// endpoint override.
func NewClients(ctx context.Context, region, endpoint string) (*Clients, error) {
	cfg, err := LoadAWSConfig(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Idempotency: dynamodb.NewFromConfig(cfg),
		Events:      sqs.NewFromConfig(cfg),
		Metrics:     cloudwatch.NewFromConfig(cfg),
	}, nil
}
