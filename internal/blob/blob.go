// Package blob stores raw uploaded files and normalized snapshots in an
// object store.
package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob: not found")

// Store is a minimal object-store interface. Keys are slash-separated paths
// like uploads/raw/<userID>/<uploadID>/<fileName>.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
