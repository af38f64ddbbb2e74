package ports

import "context"

// BlobStore is the key/value object store the session artifacts live in.
// Get returns models.ErrNotFound (wrapped) when no object exists under the
// key. Put overwrites unconditionally.
type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
