package tenant

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// DefaultDBName is the default for NewMongoRegistry's dbName.
	DefaultDBName = "app"

	// DefaultCollectionName is the default for NewMongoRegistry's collName.
	DefaultCollectionName = "client_apps"
)

// MongoRegistry is a Registry backed by a MongoDB collection, one document
// per tenant.
type MongoRegistry struct {
	coll *mongo.Collection
}

// NewMongoRegistry creates a registry over the given client. Empty dbName or
// collName fall back to the defaults. This function panics if client is nil.
func NewMongoRegistry(client *mongo.Client, dbName, collName string) *MongoRegistry {
	if client == nil {
		panic("mongo client must be provided")
	}
	if dbName == "" {
		dbName = DefaultDBName
	}
	if collName == "" {
		collName = DefaultCollectionName
	}

	return &MongoRegistry{
		coll: client.Database(dbName).Collection(collName),
	}
}

// Find returns the tenant document for tenantID, or ErrNotFound.
func (r *MongoRegistry) Find(ctx context.Context, tenantID string) (*Config, error) {
	var cfg Config

	err := r.coll.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &cfg, nil
}
