package search

import (
	"encoding/json"
	"net/http"

	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/orchestrator"
)

// BatchHandler runs the pipeline to completion and returns the full
// SearchResponse as JSON.
type BatchHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

func (h BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var dto requestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if dto.Phrase == "" {
		respond.SafeError(w, http.StatusBadRequest, errMissingPhrase)
		return
	}

	query, err := dto.toQuery()
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := h.Orchestrator.Search(r.Context(), query, dto.toLimits())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}
