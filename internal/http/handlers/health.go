package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	inflight := 0
	if a.InFlight != nil {
		inflight = a.InFlight.Len()
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "inflight": inflight})
}
