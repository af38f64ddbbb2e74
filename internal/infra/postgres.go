package infra

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgxPool connects to Postgres with the injected DSN. Nothing in infra
// reads the environment; configuration always arrives from the caller.
func NewPgxPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}
