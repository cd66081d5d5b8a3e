// Package mongotest opens a throwaway database for adapter integration tests.
// Tests are skipped unless MONGO_TEST_URI points at a replica set.
package mongotest

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/database"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Open connects to a fresh database with every index in place and drops it
// when the test ends.
func Open(t *testing.T) (*mongo.Database, *database.Mongo) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := database.Connect(ctx, config.MongoConfig{
		URI:      uri,
		Database: "storefront_test_" + primitive.NewObjectID().Hex(),
		Timeout:  10 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, database.EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db, database.NewMongo(client)
}
