// Package database opens the optional backing services: Redis and Postgres for
// the token store, Mongo for the chat transcript archive.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultMongoDatabase is used when the URI names no database.
const DefaultMongoDatabase = "gig"

// Mongo bundles a connected client and the database it selected.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func ConnectMongo(ctx context.Context, mongoURI string, logger *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("database: connect mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping mongo: %w", err)
	}

	name := MongoDatabaseName(mongoURI)
	logger.Info("connected to mongo", zap.String("database", name))
	return &Mongo{Client: client, DB: client.Database(name)}, nil
}

// MongoDatabaseName extracts the database from mongodb://host/name?opts.
func MongoDatabaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	_, path, ok := strings.Cut(rest, "/")
	if !ok {
		return DefaultMongoDatabase
	}
	name, _, _ := strings.Cut(path, "?")
	if name == "" {
		return DefaultMongoDatabase
	}
	return name
}

func (m *Mongo) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
