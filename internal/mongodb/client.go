package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"vulnerability-dashboard/config"
)

// NewClient connects to MongoDB and disconnects when the application stops. The returned
// client is the connection handle shared by every request.
func NewClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	client, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Disconnecting MongoDB client...")
			return client.Disconnect(ctx)
		},
	})
	return client, nil
}

// Connect retries with exponential backoff until the server answers a ping.
func Connect(cfg *config.Config) (*mongo.Client, error) {
	if cfg.MongoDB.URI == "" {
		log.Error().Msg("MongoDB URI is not configured.")
		return nil, errors.New("mongodb configuration missing")
	}

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI).
		SetMaxPoolSize(cfg.MongoDB.MaxPoolSize).
		SetConnectTimeout(cfg.MongoDB.ConnectTimeout).
		SetSocketTimeout(10 * time.Second)

	var client *mongo.Client
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, clientOptions)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the MongoDB client")
			return err
		}

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelPing()
		if err := c.Ping(pingCtx, nil); err != nil {
			log.Warn().Err(err).Msg("Attempt failed: MongoDB ping failed")
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Str("database", cfg.MongoDB.Database).Msg("Attempting to connect to MongoDB with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		log.Error().Err(err).Msg("Failed to connect to MongoDB after multiple retries")
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info().Msg("MongoDB client initialized and connection verified!")
	return client, nil
}

// NewDatabase selects the configured database and makes sure the dashboard collections exist.
func NewDatabase(client *mongo.Client, cfg *config.Config) (*mongo.Database, error) {
	db := client.Database(cfg.MongoDB.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := EnsureCollections(ctx, db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}
