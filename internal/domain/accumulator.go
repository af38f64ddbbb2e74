package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
)

// streamEvent is the envelope each frame decodes to. Only
// content_block_delta events carry text; every other kind is ignored.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

const eventContentDelta = "content_block_delta"

// AccumulateStream drains frames and assembles the final text. After every
// text delta the current accumulated value is handed to onProgress before the
// next frame is consumed, so each snapshot is a prefix of the next. A frame
// that fails to parse aborts the whole stream; no partial recovery.
func AccumulateStream(ctx context.Context, frames ports.ChunkStream, onProgress func(partial string)) (string, error) {
	var full strings.Builder

	for {
		frame, err := frames.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return full.String(), nil
			}
			return "", fmt.Errorf("read stream frame: %w", err)
		}

		var ev streamEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			return "", fmt.Errorf("%w: parse frame %q: %w", models.ErrStreamDecode, truncate(string(frame), 120), err)
		}

		if ev.Type != eventContentDelta || ev.Delta.Text == "" {
			continue
		}

		full.WriteString(ev.Delta.Text)
		if onProgress != nil {
			onProgress(full.String())
		}
	}
}

// truncate cuts s to at most max bytes without splitting a rune, so the
// excerpt quoted in an error stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
