package ports

import "context"

// ChunkStream is an ordered, single-consumer sequence of raw event frames
// from a streaming generation call. Next blocks until a frame is available
// and returns io.EOF when the stream is done. Close releases the underlying
// connection; it is safe to call after EOF.
type ChunkStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// LLMStream starts a streamed text-generation call. Errors returned from
// Stream wrap models.ErrThrottled when the service rejected the request
// with a rate-limit signal; that is the only failure mode worth retrying.
type LLMStream interface {
	Stream(ctx context.Context, system, prompt string) (ChunkStream, error)
}
