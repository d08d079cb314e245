package store

import (
	"sync"

	"rps-judge/server/engine"
	"rps-judge/server/judge"
)

// History keeps the settled rounds of the running game for read-only views.
// Nothing is written to disk; the history ends with the process.
type History struct {
	mu      sync.RWMutex
	rounds  []judge.RoundResult
	summary engine.Summary
	limit   int
}

// New keeps at most limit rounds; limit <= 0 keeps all of them.
func New(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Record(r judge.RoundResult, s engine.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rounds = append(h.rounds, r)
	if h.limit > 0 && len(h.rounds) > h.limit {
		h.rounds = append([]judge.RoundResult(nil), h.rounds[len(h.rounds)-h.limit:]...)
	}
	h.summary = s
}

// Rounds returns a copy, oldest first.
func (h *History) Rounds() []judge.RoundResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]judge.RoundResult, len(h.rounds))
	copy(out, h.rounds)
	return out
}

func (h *History) Summary() engine.Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summary
}

// SetSummary seeds the summary before the first round is played.
func (h *History) SetSummary(s engine.Summary) {
	h.mu.Lock()
	h.summary = s
	h.mu.Unlock()
}
