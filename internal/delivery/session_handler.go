package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
)

// Blob key prefixes mirrored from the domain layer; handlers only read the
// persisted artifacts, never compute them.
const (
	cleanedPrefix = "clean-texts/"
	summaryPrefix = "ai-summaries/"
)

type SessionHandler struct {
	blobs  ports.BlobStore
	dict   ports.DictionaryStore
	bucket string
	log    *logger.ZapLogger
}

func NewSessionHandler(blobs ports.BlobStore, dict ports.DictionaryStore, bucket string, log *logger.ZapLogger) *SessionHandler {
	return &SessionHandler{
		blobs:  blobs,
		dict:   dict,
		bucket: bucket,
		log:    log,
	}
}

// GET /api/cleaned/{sessionID}
func (h *SessionHandler) GetCleaned(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, cleanedPrefix, "cleaned text")
}

// GET /api/summary/{sessionID}
func (h *SessionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, summaryPrefix, "summary")
}

func (h *SessionHandler) serveBlob(w http.ResponseWriter, r *http.Request, prefix, what string) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	raw, err := h.blobs.Get(r.Context(), h.bucket, prefix+sessionID+".json")
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, what+" not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch "+what+": "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: what + " fetched",
		Fields: map[string]any{
			"sessionID": sessionID,
			"bytes":     len(raw),
		},
	})

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// GET /api/dictionary
func (h *SessionHandler) GetDictionary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.dict.ScanAll(r.Context())
	if err != nil {
		http.Error(w, "failed to load dictionary: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.PhraseEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
	})
}
