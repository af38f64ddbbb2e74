package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/ports"
	"github.com/dictaphone-ai/medscribe/internal/retry"
)

// Blob key layout. One object per session under each prefix.
const (
	transcriptPrefix = "transcriptions/"
	cleanedPrefix    = "clean-texts/"
	summaryPrefix    = "ai-summaries/"

	cleanInstructionsKey   = "_config/clean-instructions.txt"
	summaryInstructionsKey = "_config/summary-instructions.txt"
)

type SessionService struct {
	blobs  ports.BlobStore
	dict   ports.DictionaryStore
	llm    ports.LLMStream
	policy *retry.Policy

	bucket string
	events chan ports.ProgressEvent
}

func NewSessionService(
	blobs ports.BlobStore,
	dict ports.DictionaryStore,
	llm ports.LLMStream,
	policy *retry.Policy,
	bucket string,
) *SessionService {
	return &SessionService{
		blobs:  blobs,
		dict:   dict,
		llm:    llm,
		policy: policy,
		bucket: bucket,
		events: make(chan ports.ProgressEvent, 100),
	}
}

func (s *SessionService) Events() <-chan ports.ProgressEvent { return s.events }

// ========================================================================
// CLEAN
// ========================================================================
func (s *SessionService) CleanSession(ctx context.Context, sessionID, roomID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: empty session id", models.ErrInvalidArgument)
	}

	start := time.Now()
	log.Printf("[CLEAN][START] session=%s room=%s", sessionID, roomID)

	transcript, instructions, err := s.fetchInputs(ctx, sessionID, cleanInstructionsKey)
	if err != nil {
		return "", err
	}

	entries, err := s.dict.ScanAll(ctx)
	if err != nil {
		return "", fmt.Errorf("scan phrase dictionary: %w", err)
	}
	dictionary := make(map[string]string, len(entries))
	for _, e := range entries {
		dictionary[e.Phrase] = e.DisplayAs
	}

	raw, err := s.generate(ctx, instructions, transcript, sessionID, roomID, ports.StageClean)
	if err != nil {
		return "", err
	}

	annotated := Annotate(raw, dictionary)

	// final snapshot carries the annotated HTML so the live view matches
	// what gets persisted
	s.emit(ports.ProgressEvent{
		RoomID:    roomID,
		SessionID: sessionID,
		Stage:     ports.StageClean,
		Text:      annotated.HTML,
		Final:     true,
	})

	cleaned := models.CleanedText{
		HTML:         annotated.HTML,
		Raw:          raw,
		Replacements: annotated.Replacements,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.putJSON(ctx, cleanedPrefix+sessionID+".json", cleaned); err != nil {
		return "", fmt.Errorf("persist cleaned text: %w", err)
	}

	log.Printf("[CLEAN][DONE] session=%s replacements=%d dur=%s",
		sessionID, len(annotated.Replacements), time.Since(start))
	return annotated.HTML, nil
}

// ========================================================================
// SUMMARIZE
// ========================================================================
func (s *SessionService) SummarizeSession(ctx context.Context, sessionID, roomID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: empty session id", models.ErrInvalidArgument)
	}

	start := time.Now()
	log.Printf("[SUMMARY][START] session=%s room=%s", sessionID, roomID)

	source, err := s.summarySource(ctx, sessionID)
	if err != nil {
		return "", err
	}

	instructions, err := s.blobs.Get(ctx, s.bucket, summaryInstructionsKey)
	if err != nil {
		return "", fmt.Errorf("fetch summary instructions: %w", err)
	}

	summary, err := s.generate(ctx, string(instructions), source, sessionID, roomID, ports.StageSummarize)
	if err != nil {
		return "", err
	}

	s.emit(ports.ProgressEvent{
		RoomID:    roomID,
		SessionID: sessionID,
		Stage:     ports.StageSummarize,
		Text:      summary,
		Final:     true,
	})

	out := models.Summary{
		Summary:   summary,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.putJSON(ctx, summaryPrefix+sessionID+".json", out); err != nil {
		return "", fmt.Errorf("persist summary: %w", err)
	}

	log.Printf("[SUMMARY][DONE] session=%s dur=%s", sessionID, time.Since(start))
	return summary, nil
}

// generate starts the streamed call (throttle-retried) and accumulates it,
// forwarding every partial snapshot to the events channel.
func (s *SessionService) generate(ctx context.Context, system, prompt, sessionID, roomID, stage string) (string, error) {
	stream, err := retry.Do(ctx, s.policy, func(ctx context.Context) (ports.ChunkStream, error) {
		return s.llm.Stream(ctx, system, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("start generation stream: %w", err)
	}
	defer stream.Close()

	text, err := AccumulateStream(ctx, stream, func(partial string) {
		s.emit(ports.ProgressEvent{
			RoomID:    roomID,
			SessionID: sessionID,
			Stage:     stage,
			Text:      partial,
		})
	})
	if err != nil {
		return "", fmt.Errorf("accumulate response: %w", err)
	}
	return text, nil
}

// fetchInputs loads the transcript and the instructions blob concurrently;
// the two reads are independent.
func (s *SessionService) fetchInputs(ctx context.Context, sessionID, instructionsKey string) (string, string, error) {
	var transcriptRaw, instructions []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.blobs.Get(gctx, s.bucket, transcriptPrefix+sessionID+".json")
		if err != nil {
			return fmt.Errorf("fetch transcript: %w", err)
		}
		transcriptRaw = b
		return nil
	})
	g.Go(func() error {
		b, err := s.blobs.Get(gctx, s.bucket, instructionsKey)
		if err != nil {
			return fmt.Errorf("fetch instructions: %w", err)
		}
		instructions = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	text, err := extractTranscriptText(transcriptRaw)
	if err != nil {
		return "", "", err
	}
	return text, string(instructions), nil
}

// summarySource prefers the cleaned text; a missing cleaned-text blob falls
// back to the raw transcript instead of failing. This is the one sanctioned
// fallback in the whole flow.
func (s *SessionService) summarySource(ctx context.Context, sessionID string) (string, error) {
	b, err := s.blobs.Get(ctx, s.bucket, cleanedPrefix+sessionID+".json")
	if err == nil {
		var cleaned models.CleanedText
		if jerr := json.Unmarshal(b, &cleaned); jerr != nil {
			return "", fmt.Errorf("parse cleaned text: %w", jerr)
		}
		return cleaned.Raw, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("fetch cleaned text: %w", err)
	}

	log.Printf("[SUMMARY][FALLBACK] session=%s no cleaned text, using transcript", sessionID)
	raw, err := s.blobs.Get(ctx, s.bucket, transcriptPrefix+sessionID+".json")
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	return extractTranscriptText(raw)
}

// transcriptDoc covers both shapes the transcription stage writes: the
// recognizer result envelope and the plain content form.
type transcriptDoc struct {
	Results *struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
	Content string `json:"content"`
}

func extractTranscriptText(raw []byte) (string, error) {
	var doc transcriptDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: transcript is not JSON: %v", models.ErrInvalidFormat, err)
	}
	if doc.Results != nil && len(doc.Results.Transcripts) > 0 {
		return doc.Results.Transcripts[0].Transcript, nil
	}
	if doc.Content != "" {
		return doc.Content, nil
	}
	return "", fmt.Errorf("%w: neither results.transcripts nor content present", models.ErrInvalidFormat)
}

func (s *SessionService) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, s.bucket, key, b, "application/json")
}

func (s *SessionService) emit(ev ports.ProgressEvent) {
	select {
	case s.events <- ev:
	default:
		log.Printf("[EVENTS][DROP] room=%s stage=%s", ev.RoomID, ev.Stage)
	}
}
