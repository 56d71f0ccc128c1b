// Package secrets fetches the LLM backend credentials the orchestrator's
// adapters need, preferring a local environment variable and falling back
// to AWS Secrets Manager (§5 "LLM Backend Adapters" are configured with
// API credentials, out of scope for how those credentials are minted).
package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// Service retrieves API credentials for LLM backend adapters.
type Service struct {
	client *secretsmanager.Client
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(client *secretsmanager.Client, logger *zap.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// GetReplicateAPIKey retrieves the Replicate API token, checking
// REPLICATE_API_KEY before falling back to the secret ARN in Secrets
// Manager.
func (s *Service) GetReplicateAPIKey(ctx context.Context, secretARN string) (string, error) {
	if apiKey := os.Getenv("REPLICATE_API_KEY"); apiKey != "" {
		s.logger.Debug("using Replicate API key from environment")
		return apiKey, nil
	}

	if secretARN == "" {
		return "", fmt.Errorf("REPLICATE_API_KEY not set and no secret ARN configured")
	}

	s.logger.Info("retrieving Replicate API key from Secrets Manager", zap.String("secret_arn", secretARN))
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return "", fmt.Errorf("retrieve replicate API key: %w", err)
	}
	return *result.SecretString, nil
}
