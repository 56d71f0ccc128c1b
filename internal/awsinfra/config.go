// Package awsinfra constructs the AWS SDK clients the core depends on:
// DynamoDB, S3, Secrets Manager. Named awsinfra (not aws) to avoid
// shadowing the github.com/aws/aws-sdk-go-v2/aws package it imports.
package awsinfra

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// NewConfig loads the AWS SDK configuration for region, falling back to
// static dummy credentials when AWS_ENDPOINT_URL points at a local
// DynamoDB/S3 emulator (the teacher's own local-dev override).
func NewConfig(region string) (aws.Config, error) {
	endpointURL := os.Getenv("AWS_ENDPOINT_URL")

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))
	if endpointURL != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return aws.Config{}, err
	}
	return cfg, nil
}

// Clients holds the service clients the core touches. No Lambda/Step
// Functions clients: this spec has no external workflow engine (§4.9's
// coordinator drives the pipeline in-process).
type Clients struct {
	DynamoDB       *dynamodb.Client
	S3             *s3.Client
	SecretsManager *secretsmanager.Client
}

// NewClients constructs every client from cfg, honoring a local DynamoDB
// endpoint override for development.
func NewClients(cfg aws.Config) *Clients {
	endpointURL := os.Getenv("AWS_ENDPOINT_URL")

	var dynamoClient *dynamodb.Client
	if endpointURL != "" {
		dynamoClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = &endpointURL
		})
	} else {
		dynamoClient = dynamodb.NewFromConfig(cfg)
	}

	return &Clients{
		DynamoDB:       dynamoClient,
		S3:             s3.NewFromConfig(cfg),
		SecretsManager: secretsmanager.NewFromConfig(cfg),
	}
}
