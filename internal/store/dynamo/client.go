package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	connectAttempts   = 5
	connectBackoff    = 1 * time.Second
	connectBackoffCap = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

// Client wraps the DynamoDB service client used by the billing repositories.
type Client struct {
	DB *dynamodb.Client
}

// Config holds DynamoDB connection settings. Endpoint, AccessKeyID and
// SecretAccessKey are only meaningful for DynamoDB Local; against real AWS
// the default credential chain applies.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client and verifies connectivity before
// returning it.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.Endpoint != "" {
		// Static credentials keep the SDK from probing the instance
		// metadata service when pointed at a local endpoint.
		accessKey := cfg.AccessKeyID
		if accessKey == "" {
			accessKey = "local"
		}
		secretKey := cfg.SecretAccessKey
		if secretKey == "" {
			secretKey = "local"
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	db := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	c := &Client{DB: db}
	if err := c.waitReachable(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// waitReachable pings DynamoDB with exponential backoff until it answers or
// the attempt budget runs out. DynamoDB Local in docker-compose often takes a
// few seconds before accepting requests.
func (c *Client) waitReachable(ctx context.Context) error {
	backoff := connectBackoff
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = c.Ping(pingCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if attempt < connectAttempts {
			slog.Warn("dynamodb unreachable, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"err", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = min(backoff*2, connectBackoffCap)
		}
	}
	return fmt.Errorf("dynamodb unreachable after %d attempts: %w", connectAttempts, lastErr)
}

// Ping checks DynamoDB connectivity by listing a single table.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.DB.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}
