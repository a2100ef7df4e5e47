package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.orchestrator.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"fetch":       stats.Fetch.Snapshot(),
		"parse":       stats.Parse.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
