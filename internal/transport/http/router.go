// Package http exposes a read-only ops surface next to the game port:
// health, the room list and runtime counters. It never mutates game
// state.
package http

import (
	"encoding/json"
	"expvar"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"

	"rps-arena/internal/arena"
)

func NewRouter(coord *arena.Coordinator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger())

	r.Get("/healthz", healthHandler())
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/rooms", roomsHandler(coord))
		r.Get("/stats", statsHandler(coord))
	})
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	return r
}

func requestLogger() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
		},
	)
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func roomsHandler(coord *arena.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, coord.ListRooms())
	}
}

func statsHandler(coord *arena.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, coord.Stats())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
