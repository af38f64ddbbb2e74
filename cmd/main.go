package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dictaphone-ai/medscribe/internal/config"
	"github.com/dictaphone-ai/medscribe/internal/delivery"
	ws "github.com/dictaphone-ai/medscribe/internal/delivery/ws"
	"github.com/dictaphone-ai/medscribe/internal/domain"
	"github.com/dictaphone-ai/medscribe/internal/infra"
	"github.com/dictaphone-ai/medscribe/internal/models"
	"github.com/dictaphone-ai/medscribe/internal/retry"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	zl := logger.NewZapLogger(zcore.Sugar())

	// CONFIG
	cfgPath := flag.String("config", "", "path to YAML config (env overrides apply)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic("config: " + err.Error())
	}

	// POSTGRES
	ctx := context.Background()

	pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		panic("cannot connect pgxpool: " + err.Error())
	}
	defer pool.Close()

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		panic("postgres ping failed: " + err.Error())
	}

	// STORES
	blobs := infra.NewPostgresBlobStore(pool)
	dict := infra.NewPostgresDictionaryStore(pool, cfg.Dictionary.Table)

	// LLM CLIENT
	llm := infra.NewAnthropicClient(
		cfg.Anthropic.APIKey,
		cfg.Anthropic.Model,
		cfg.Anthropic.BaseURL,
		cfg.Anthropic.MaxTokens,
	)

	// RETRY POLICY (throttle only)
	policy := retry.New(cfg.Retry.MaxAttempts, retry.DefaultBaseDelay, func(err error) bool {
		return errors.Is(err, models.ErrThrottled)
	})

	// SERVICES
	authService := domain.NewAuthService(pool, cfg.AuthSecret)
	sessionService := domain.NewSessionService(blobs, dict, llm, policy, cfg.Blob.Bucket)

	// WS HUB
	hub := ws.NewHub()

	// BROADCAST LISTENER
	go func() {
		for ev := range sessionService.Events() {

			type wsProgress struct {
				SessionID string `json:"sessionId"`
				Stage     string `json:"stage"`
				Text      string `json:"text"`
				Final     bool   `json:"final"`
			}

			payload, err := json.Marshal(wsProgress{
				SessionID: ev.SessionID,
				Stage:     ev.Stage,
				Text:      ev.Text,
				Final:     ev.Final,
			})
			if err != nil {
				log.Printf("[SEND][ERR] json marshal failed: %v", err)
				continue
			}

			hub.SendToRoom(ev.RoomID, payload)
		}
	}()

	// HANDLERS
	authHandler := delivery.NewAuthHandler(authService, zl)
	sessionHandler := delivery.NewSessionHandler(blobs, dict, cfg.Blob.Bucket, zl)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, authHandler, authService, sessionHandler)

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {

		// per-connection context so a disconnect stops the run
		ctxWS, cancelWS := context.WithCancel(context.Background())

		ws.WSHandler(hub, sessionService, ctxWS, cancelWS)(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields:  map[string]any{"port": cfg.Port},
	})

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}
