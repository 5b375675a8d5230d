package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps objects in a MongoDB GridFS bucket, using the public id
// as the file id. Objects are served by the server's /media route.
type GridFSStore struct {
	db         *mongo.Database
	bucketName string
	baseURL    string
}

func NewGridFSStore(db *mongo.Database, bucketName, baseURL string) *GridFSStore {
	if bucketName == "" {
		bucketName = "images"
	}
	return &GridFSStore{db: db, bucketName: bucketName, baseURL: baseURL}
}

// bucket returns a bucket bound to ctx's deadline. Deadlines are bucket
// state, so each call gets its own.
func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucketName))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *GridFSStore) Put(ctx context.Context, publicID, contentType string, data []byte) (Object, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return Object{}, err
	}

	existing, err := s.find(ctx, b, publicID)
	if err != nil {
		return Object{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if err := b.UploadFromStreamWithID(publicID, publicID, bytes.NewReader(data), opts); err != nil {
		return Object{}, fmt.Errorf("gridfs upload %s: %w", publicID, err)
	}
	return Object{
		PublicID:    publicID,
		URL:         s.URL(publicID),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *GridFSStore) Open(ctx context.Context, publicID string) (io.ReadCloser, Object, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, Object{}, err
	}
	stream, err := b.OpenDownloadStream(publicID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, Object{}, ErrNotExist
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("gridfs open %s: %w", publicID, err)
	}
	return stream, s.describe(publicID, stream.GetFile()), nil
}

func (s *GridFSStore) Delete(ctx context.Context, publicID string) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	err = b.DeleteContext(ctx, publicID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return ErrNotExist
	}
	return err
}

func (s *GridFSStore) URL(publicID string) string {
	return mediaURL(s.baseURL, publicID)
}

func (s *GridFSStore) find(ctx context.Context, b *gridfs.Bucket, publicID string) (*Object, error) {
	cursor, err := b.FindContext(ctx, bson.M{"_id": publicID})
	if err != nil {
		return nil, fmt.Errorf("gridfs find %s: %w", publicID, err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return nil, cursor.Err()
	}
	var file gridfs.File
	if err := cursor.Decode(&file); err != nil {
		return nil, err
	}
	obj := s.describe(publicID, &file)
	return &obj, nil
}

func (s *GridFSStore) describe(publicID string, file *gridfs.File) Object {
	obj := Object{PublicID: publicID, URL: s.URL(publicID)}
	if file == nil {
		return obj
	}
	obj.Size = file.Length
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			obj.ContentType = ct
		}
	}
	return obj
}
