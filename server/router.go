// server/router.go
package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rps-judge/server/store"
)

// Router exposes a read-only view of the running game. It never touches the
// orchestrator; everything comes from the recorded history.
func Router(h *store.History) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Get("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, h.Summary())
	})

	// ?limit=N returns only the newest N rounds.
	r.Get("/api/rounds", func(w http.ResponseWriter, r *http.Request) {
		rounds := h.Rounds()
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			if n < len(rounds) {
				rounds = rounds[len(rounds)-n:]
			}
		}
		writeJSON(w, map[string]any{"rounds": rounds, "count": len(rounds)})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
