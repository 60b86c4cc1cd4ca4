package handlers

import (
	"net/http"
)

// Metrics reports live sessions per workflow phase and open event streams.
func (a *App) Metrics(w http.ResponseWriter, r *http.Request) {
	phases := make(map[string]int)
	for phase, n := range a.Store.Stats() {
		phases[string(phase)] = n
	}
	a.json(w, http.StatusOK, map[string]any{
		"sessions": a.Store.Count(),
		"phases":   phases,
		"watchers": a.Store.Watchers(),
	})
}
