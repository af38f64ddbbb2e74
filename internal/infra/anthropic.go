package infra

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"

	// sseMaxLineBytes bounds a single SSE line; delta payloads are small
	// but error bodies and ping comments can be long-ish.
	sseMaxLineBytes = 1 << 20
)

// AnthropicClient starts streamed message-generation calls against the
// Anthropic Messages API and hands the raw event frames to the caller.
// Envelope parsing is deliberately NOT done here; the accumulator owns it.
type AnthropicClient struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

func NewAnthropicClient(apiKey, model, baseURL string, maxTokens int) *AnthropicClient {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Stream    bool               `json:"stream"`
	Messages  []anthropicMessage `json:"messages"`
}

func (c *AnthropicClient) Stream(ctx context.Context, system, prompt string) (ports.ChunkStream, error) {
	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Stream:    true,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	j, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(j))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if isThrottleStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: anthropic http %d: %s", models.ErrThrottled, resp.StatusCode, bytes.TrimSpace(raw))
		}
		return nil, fmt.Errorf("anthropic http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), sseMaxLineBytes)
	return &sseStream{body: resp.Body, sc: sc}, nil
}

// 429 is the documented rate-limit status; 529 is the overloaded signal the
// service emits under load. Both mean back off and try again.
func isThrottleStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == 529
}

// sseStream yields the data payload of each server-sent event as one frame.
// event:/comment/blank lines are transport framing and are skipped here.
type sseStream struct {
	body io.ReadCloser
	sc   *bufio.Scanner
}

func (s *sseStream) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return nil, fmt.Errorf("read sse: %w", err)
			}
			return nil, io.EOF
		}

		line := strings.TrimSpace(s.sc.Text())
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			return []byte(strings.TrimSpace(payload)), nil
		}
		// unknown framing line, ignore
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
