package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoAppName = "carelink-api"

// ConnectMongo dials uri, waits for a primary within timeout and returns the
// named database. The returned disconnect func releases the client.
func ConnectMongo(ctx context.Context, uri, database string, timeout time.Duration) (*mongo.Database, func(context.Context) error, error) {
	if database == "" {
		return nil, nil, fmt.Errorf("mongo: database name is required")
	}
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(mongoAppName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client.Database(database), client.Disconnect, nil
}
