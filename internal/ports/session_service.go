package ports

import "context"

// Stage identifies which operation a progress event belongs to.
const (
	StageClean     = "clean"
	StageSummarize = "summary"
)

// ProgressEvent is one snapshot of a running session operation. Text grows
// monotonically across events of the same session/stage; the final event of
// a cleaning run carries the annotated HTML instead of the raw accumulator.
type ProgressEvent struct {
	RoomID    string
	SessionID string
	Stage     string
	Text      string
	Final     bool
}

// SessionProcessor runs the clean/summarize operations for a transcript
// session and exposes their progress as a consumable event sequence.
type SessionProcessor interface {
	CleanSession(ctx context.Context, sessionID, roomID string) (string, error)
	SummarizeSession(ctx context.Context, sessionID, roomID string) (string, error)
	Events() <-chan ProgressEvent
}
