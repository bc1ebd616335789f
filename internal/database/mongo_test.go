package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"brincafacil/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Runs against a live server only: MONGO_TEST_URI=mongodb://localhost:27017
func testMongo(t *testing.T) *MongoDB {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	return newMongo(uri, "", "", "brincafacil_test_"+uuid.NewString()[:8])
}

func TestMongoUpsertAccessConcurrent(t *testing.T) {
	store := testMongo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := store.UpsertAccess(ctx, &entity.UserAccessRecord{Email: "a@b.com", AccessGranted: true, Source: entity.SourceKirvano})
			assert.NoError(t, err)
			if rec != nil {
				assert.True(t, rec.AccessGranted)
			}
		}()
	}
	wg.Wait()

	rec, err := store.GetAccess(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, entity.SourceKirvano, rec.Source)

	_, err = store.GetAccess(ctx, "missing@b.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestMongoUpsertContract(t *testing.T) {
	store := testMongo(t)
	testUpsertContract(t, store, func(email string) int {
		ctx := context.Background()
		connection, err := store.connect(ctx)
		require.NoError(t, err)
		defer store.disconnect(connection)
		n, err := connection.Database(store.database).Collection(collectionUsers).CountDocuments(ctx, bson.D{{Key: "email", Value: email}})
		require.NoError(t, err)
		return int(n)
	})
}
