package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
)

type PostgresDictionaryStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresDictionaryStore(pool *pgxpool.Pool, table string) ports.DictionaryStore {
	if table == "" {
		table = "phrase_dictionary"
	}
	return &PostgresDictionaryStore{pool: pool, table: table}
}

// ScanAll reads the whole dictionary. The table is operator-curated and
// small (hundreds of rows); rows stream over the wire, no cursor handling
// needed here.
func (r *PostgresDictionaryStore) ScanAll(ctx context.Context) ([]models.PhraseEntry, error) {
	query := fmt.Sprintf(`SELECT phrase, display_as FROM %s`, r.table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scan dictionary: %w", err)
	}
	defer rows.Close()

	var entries []models.PhraseEntry
	for rows.Next() {
		var e models.PhraseEntry
		if err := rows.Scan(&e.Phrase, &e.DisplayAs); err != nil {
			return nil, fmt.Errorf("scan dictionary row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan dictionary rows: %w", err)
	}

	return entries, nil
}
