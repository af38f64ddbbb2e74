package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
)

// PostgresBlobStore keeps session artifacts in a blobs table keyed by
// (bucket, key). Put is a full overwrite, matching the write-once-per-run
// semantics of the cleaned-text and summary objects.
type PostgresBlobStore struct {
	pool *pgxpool.Pool
}

func NewPostgresBlobStore(pool *pgxpool.Pool) ports.BlobStore {
	return &PostgresBlobStore{pool: pool}
}

func (r *PostgresBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	query := `
		SELECT content
		FROM blobs
		WHERE bucket = $1 AND key = $2
	`

	var content []byte
	err := r.pool.QueryRow(ctx, query, bucket, key).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", models.ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("get blob %s/%s: %w", bucket, key, err)
	}

	return content, nil
}

func (r *PostgresBlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	query := `
		INSERT INTO blobs (bucket, key, content, content_type, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (bucket, key)
		DO UPDATE SET content = $3, content_type = $4, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, bucket, key, data, contentType); err != nil {
		return fmt.Errorf("put blob %s/%s: %w", bucket, key, err)
	}
	return nil
}
