package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleOCRStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "ocr stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	// Engine kind comes from config: asking the holder here would force
	// construction of an engine no request has needed yet.
	_ = json.NewEncoder(w).Encode(map[string]any{
		"engine": s.cfg.EngineKind,
		"stats":  s.stats.Snapshot(),
	})
}
