package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anonto42/pins/backend/pkg/config"
	"github.com/anonto42/pins/backend/pkg/firebase"
)

const gridFSBucket = "images"

// Open returns the backend selected by cfg.Storage.Backend. mongoClient is
// required for gridfs and fb for firebase.
func Open(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client, fb *firebase.App) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return NewMemoryStore(cfg.PublicBaseURL()), nil
	case "gridfs":
		if mongoClient == nil {
			return nil, fmt.Errorf("gridfs storage needs a MongoDB connection")
		}
		return NewGridFSStore(mongoClient.Database(cfg.Mongo.Database), gridFSBucket, cfg.PublicBaseURL()), nil
	case "firebase":
		if fb == nil || fb.StorageClient == nil {
			return nil, fmt.Errorf("firebase storage needs an initialized firebase app with a bucket")
		}
		bucket, err := fb.StorageClient.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("open firebase bucket: %w", err)
		}
		return NewFirebaseStore(bucket, cfg.Firebase.StorageBucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
