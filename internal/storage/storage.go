// Package storage stores uploaded image bytes under content-addressed keys.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotExist is returned when no object is stored under a public id.
var ErrNotExist = errors.New("storage: object does not exist")

// Object describes a stored object.
type Object struct {
	PublicID    string
	URL         string
	ContentType string
	Size        int64
}

// ObjectStore is the object storage boundary.
type ObjectStore interface {
	// Put stores data under publicID. Storing the same publicID twice keeps
	// the first object.
	Put(ctx context.Context, publicID, contentType string, data []byte) (Object, error)
	// Open returns a reader over the object's bytes. The caller closes it.
	Open(ctx context.Context, publicID string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, publicID string) error
	// URL returns the address the object is served from.
	URL(publicID string) string
}

// PublicID derives the key for data under baseFolder from its SHA-256, so
// identical uploads share one object.
func PublicID(baseFolder string, data []byte) string {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])[:32]
	folder := strings.Trim(baseFolder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// ValidPublicID rejects keys that could escape the store's namespace.
func ValidPublicID(publicID string) bool {
	if publicID == "" || strings.HasPrefix(publicID, "/") || strings.Contains(publicID, "\\") {
		return false
	}
	for _, part := range strings.Split(publicID, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func mediaURL(baseURL, publicID string) string {
	return strings.TrimRight(baseURL, "/") + "/media/" + publicID
}
