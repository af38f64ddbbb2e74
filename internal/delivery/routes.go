package delivery

import (
	"github.com/dictaphone-ai/medscribe/internal/ports"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hAuth *AuthHandler, auth ports.AuthService, hSession *SessionHandler) {

	// login is the only public API route
	r.Post("/api/login", hAuth.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		r.Get("/api/cleaned/{sessionID}", hSession.GetCleaned)
		r.Get("/api/summary/{sessionID}", hSession.GetSummary)
		r.Get("/api/dictionary", hSession.GetDictionary)
	})
}
