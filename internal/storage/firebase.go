package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
)

// FirebaseStore keeps objects in a Firebase Storage (GCS) bucket and serves
// them from the public storage.googleapis.com host.
type FirebaseStore struct {
	bucket *gcs.BucketHandle
	name   string
}

// NewFirebaseStore wraps a bucket obtained from the Firebase storage client.
func NewFirebaseStore(bucket *gcs.BucketHandle, name string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, name: name}
}

func (s *FirebaseStore) Put(ctx context.Context, publicID, contentType string, data []byte) (Object, error) {
	obj := s.bucket.Object(publicID)

	if attrs, err := obj.Attrs(ctx); err == nil {
		return s.describe(attrs), nil
	} else if !errors.Is(err, gcs.ErrObjectNotExist) {
		return Object{}, fmt.Errorf("firebase stat %s: %w", publicID, err)
	}

	w := obj.If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("firebase upload %s: %w", publicID, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("firebase upload %s: %w", publicID, err)
	}
	return s.describe(w.Attrs()), nil
}

func (s *FirebaseStore) Open(ctx context.Context, publicID string) (io.ReadCloser, Object, error) {
	r, err := s.bucket.Object(publicID).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, Object{}, ErrNotExist
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("firebase open %s: %w", publicID, err)
	}
	return r, Object{
		PublicID:    publicID,
		URL:         s.URL(publicID),
		ContentType: r.Attrs.ContentType,
		Size:        r.Attrs.Size,
	}, nil
}

func (s *FirebaseStore) Delete(ctx context.Context, publicID string) error {
	err := s.bucket.Object(publicID).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotExist
	}
	return err
}

func (s *FirebaseStore) URL(publicID string) string {
	return publicObjectURL(s.name, publicID)
}

func (s *FirebaseStore) describe(attrs *gcs.ObjectAttrs) Object {
	return Object{
		PublicID:    attrs.Name,
		URL:         s.URL(attrs.Name),
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
	}
}

func publicObjectURL(bucket, publicID string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + publicID}
	return u.String()
}
