package handlers

import (
	"net/http"
	"strconv"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/logging"
)

// HistoryResponse is the operation history reply.
type HistoryResponse struct {
	Operations []database.Operation `json:"operations"`
	Count      int                  `json:"count"`
}

// GetHistory returns the most recent processing operations.
//
// Query parameters: limit (optional).
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, CodeMalformedRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	operations, err := h.db.RecentOperations(r.Context(), limit)
	if err != nil {
		logging.Error("history query failed: %v", err)
		writeError(w, CodeProcessingFailed, "failed to read operation history")
		return
	}

	if operations == nil {
		operations = []database.Operation{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, HistoryResponse{
		Operations: operations,
		Count:      len(operations),
	})
}

// GetStats returns aggregate statistics over the recorded operations.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.OperationStats(r.Context())
	if err != nil {
		logging.Error("stats query failed: %v", err)
		writeError(w, CodeProcessingFailed, "failed to read operation stats")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
