package secretx

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the slice of the Secrets Manager client we use.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSFetcher reads secrets from AWS Secrets Manager.
type AWSFetcher struct {
	client SecretsManagerAPI
}

// NewAWSFetcher wraps an existing Secrets Manager client.
func NewAWSFetcher(client SecretsManagerAPI) *AWSFetcher {
	return &AWSFetcher{client: client}
}

// NewAWSFetcherFromEnv loads the default AWS config chain (env, shared
// config, instance role) and builds a fetcher. endpoint overrides the service
// URL, useful against localstack.
func NewAWSFetcherFromEnv(ctx context.Context, region, endpoint string) (*AWSFetcher, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewAWSFetcher(client), nil
}

// Fetch returns SecretString when set, otherwise SecretBinary.
func (f *AWSFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	out, err := f.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("secretsmanager get %q: %w", name, err)
	}

	if s := aws.ToString(out.SecretString); s != "" {
		return []byte(s), nil
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}
	return nil, fmt.Errorf("secretsmanager get %q: %w", name, errEmptySecret)
}

var errEmptySecret = errors.New("secret has no value")

// StaticFetcher serves secrets from memory. Missing names are an error.
type StaticFetcher map[string][]byte

func (f StaticFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	secret, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("secret %q not found", name)
	}
	return secret, nil
}
