package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/config"
)

const (
	connectAttempts   = 5
	connectBackoff    = 1 * time.Second
	connectBackoffCap = 30 * time.Second
)

// MongoClient holds the driver client and the database the billing
// collections live in.
type MongoClient struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewClient connects to MongoDB and verifies the connection with a ping,
// retrying with exponential backoff while the server comes up.
func NewClient(cfg *config.Config) (*MongoClient, error) {
	clientOpts := options.Client().ApplyURI(cfg.MongoURI)
	connectTimeout := time.Duration(cfg.MongoConnectTimeoutSec) * time.Second

	backoff := connectBackoff
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := tryConnect(clientOpts, connectTimeout)
		if err == nil {
			return &MongoClient{Client: client, DB: client.Database(cfg.MongoDB)}, nil
		}
		lastErr = err

		if attempt < connectAttempts {
			slog.Warn("mongo connect failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"err", err)
			time.Sleep(backoff)
			backoff = min(backoff*2, connectBackoffCap)
		}
	}
	return nil, fmt.Errorf("connect to mongo after %d attempts: %w", connectAttempts, lastErr)
}

func tryConnect(opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}

// Ping verifies connectivity (used by /readyz).
func (m *MongoClient) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close gracefully disconnects from MongoDB.
func (m *MongoClient) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
