// Package web exposes the workflow over a local JSON API for
// browser-based front ends.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func gatewayLogger() *slog.Logger {
	return slog.Default().With(
		"service", "dentalsmart-client",
		"module", "web",
		"layer", "adapter",
	)
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Post("/analyze", h.Analyze)
		r.Post("/save", h.Save)
		r.Post("/reset", h.Reset)
		r.Get("/state", h.State)
		r.Get("/history", h.History)
		r.Get("/models", h.Models)
	})

	return r
}
