package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type AWSConfig struct {
	Region   string
	Endpoint string // empty uses the regional AWS endpoint; set for DynamoDB Local
}

func NewDynamoDBClient(ctx context.Context, cfg AWSConfig) (*dynamodb.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-west-2"
	}

	slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", region))
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Error("[AWSClient] Failed to load AWS config", slog.String("error", err.Error()))
		return nil, fmt.Errorf("[AWSClient] load config: %w", err)
	}
	slog.Info("[AWSClient] AWS Config Initialized")

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
