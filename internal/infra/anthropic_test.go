package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dictaphone-ai/medscribe/internal/models"
)

func collectFrames(t *testing.T, c *AnthropicClient) []string {
	t.Helper()

	stream, err := c.Stream(context.Background(), "system prompt", "user text")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	var frames []string
	for {
		frame, err := stream.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		frames = append(frames, string(frame))
	}
}

func TestAnthropicStreamFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key-123" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Errorf("missing version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("request body: %v", err)
		}
		if !req.Stream {
			t.Errorf("stream flag not set")
		}
		if req.System != "system prompt" || len(req.Messages) != 1 || req.Messages[0].Content != "user text" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: message_start\n")
		io.WriteString(w, "data: {\"type\":\"message_start\"}\n")
		io.WriteString(w, "\n")
		io.WriteString(w, ": keepalive comment\n")
		io.WriteString(w, "event: content_block_delta\n")
		io.WriteString(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n")
		io.WriteString(w, "\n")
		io.WriteString(w, "event: message_stop\n")
		io.WriteString(w, "data: {\"type\":\"message_stop\"}\n")
		io.WriteString(w, "\n")
	}))
	defer srv.Close()

	c := NewAnthropicClient("key-123", "claude-3-5-sonnet-latest", srv.URL, 1024)
	frames := collectFrames(t, c)

	if len(frames) != 3 {
		t.Fatalf("expected 3 data frames, got %d: %v", len(frames), frames)
	}
	if frames[1] != `{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}` {
		t.Errorf("unexpected delta frame: %s", frames[1])
	}
}

func TestAnthropicStreamThrottled(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, 529} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error"}}`)
		}))

		c := NewAnthropicClient("k", "m", srv.URL, 0)
		_, err := c.Stream(context.Background(), "s", "p")
		srv.Close()

		if !errors.Is(err, models.ErrThrottled) {
			t.Errorf("status %d: expected ErrThrottled, got %v", code, err)
		}
	}
}

func TestAnthropicStreamNonThrottleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "m", srv.URL, 0)
	_, err := c.Stream(context.Background(), "s", "p")

	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, models.ErrThrottled) {
		t.Errorf("400 must not be classified as throttling: %v", err)
	}
}

func TestSSEStreamContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"type\":\"ping\"}\n\n")
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "m", srv.URL, 0)
	stream, err := c.Stream(context.Background(), "s", "p")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stream.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
