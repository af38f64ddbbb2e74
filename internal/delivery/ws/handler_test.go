package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dictaphone-ai/medscribe/internal/ports"
)

type noopSessions struct{}

func (noopSessions) CleanSession(ctx context.Context, sessionID, roomID string) (string, error) {
	return "", nil
}
func (noopSessions) SummarizeSession(ctx context.Context, sessionID, roomID string) (string, error) {
	return "", nil
}
func (noopSessions) Events() <-chan ports.ProgressEvent { return nil }

func TestWSHandlerFailedUpgradeWritesSingleResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := WSHandler(NewHub(), noopSessions{}, ctx, cancel)

	// plain GET, no websocket handshake headers
	req := httptest.NewRequest("GET", "/ws?roomID=room-a", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	// the upgrader already wrote its error; nothing may append a second body
	if got := rr.Body.String(); got != http.StatusText(http.StatusBadRequest)+"\n" {
		t.Errorf("body = %q, want the upgrader's single error line", got)
	}
}
