package models

import "errors"

// Error kinds shared across layers. Callers classify with errors.Is;
// anything not matching a sentinel is an upstream failure and propagates
// wrapped.
var (
	// ErrInvalidArgument: caller passed an empty or malformed identifier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound: the requested blob does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat: transcript JSON is present but carries neither
	// results.transcripts nor content.
	ErrInvalidFormat = errors.New("invalid transcript format")

	// ErrThrottled: transient rate-limit rejection from the generation
	// service. The only error kind the retry wrapper consumes attempts on.
	ErrThrottled = errors.New("throttled")

	// ErrStreamDecode: a stream frame could not be decoded or parsed.
	ErrStreamDecode = errors.New("stream decode failed")
)
