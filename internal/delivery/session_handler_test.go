package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dictaphone-ai/medscribe/internal/models"
)

type stubBlobStore struct {
	objects map[string][]byte
}

func (s *stubBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if b, ok := s.objects[key]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", models.ErrNotFound, bucket, key)
}

func (s *stubBlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	s.objects[key] = data
	return nil
}

type stubDictStore struct {
	entries []models.PhraseEntry
}

func (s *stubDictStore) ScanAll(ctx context.Context) ([]models.PhraseEntry, error) {
	return s.entries, nil
}

func newTestRouter(blobs *stubBlobStore, dict *stubDictStore) chi.Router {
	zcore := zap.NewNop()
	zl := logger.NewZapLogger(zcore.Sugar())

	h := NewSessionHandler(blobs, dict, "bucket", zl)

	r := chi.NewRouter()
	r.Get("/api/cleaned/{sessionID}", h.GetCleaned)
	r.Get("/api/summary/{sessionID}", h.GetSummary)
	r.Get("/api/dictionary", h.GetDictionary)
	return r
}

func TestGetCleaned(t *testing.T) {
	blobs := &stubBlobStore{objects: map[string][]byte{
		"clean-texts/s-1.json": []byte(`{"html":"<span>MI</span>","raw":"heart attack"}`),
	}}
	r := newTestRouter(blobs, &stubDictStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/cleaned/s-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<span>MI</span>") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestGetCleanedNotFound(t *testing.T) {
	r := newTestRouter(&stubBlobStore{objects: map[string][]byte{}}, &stubDictStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/cleaned/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetSummary(t *testing.T) {
	blobs := &stubBlobStore{objects: map[string][]byte{
		"ai-summaries/s-2.json": []byte(`{"summary":"brief"}`),
	}}
	r := newTestRouter(blobs, &stubDictStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary/s-2", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "brief") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetDictionary(t *testing.T) {
	dict := &stubDictStore{entries: []models.PhraseEntry{
		{Phrase: "bp", DisplayAs: "Blood Pressure"},
	}}
	r := newTestRouter(&stubBlobStore{objects: map[string][]byte{}}, dict)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dictionary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Entries []models.PhraseEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].DisplayAs != "Blood Pressure" {
		t.Errorf("entries = %+v", body.Entries)
	}
}
