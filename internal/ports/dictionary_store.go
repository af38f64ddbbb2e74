package ports

import (
	"context"

	"github.com/dictaphone-ai/medscribe/internal/models"
)

// DictionaryStore serves the phrase dictionary used for annotation.
type DictionaryStore interface {
	ScanAll(ctx context.Context) ([]models.PhraseEntry, error)
}
