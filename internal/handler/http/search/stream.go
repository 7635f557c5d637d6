package search

import (
	"encoding/json"
	"fmt"
	"net/http"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/orchestrator"
)

// SessionCreator is the subset of *session.Store a StreamHandler needs to
// mint a session id before the pipeline starts, so the id can reach the
// client in the first frame.
type SessionCreator interface {
	Create(query entity.SearchQuery) string
}

// StreamHandler drains the orchestrator's streaming channel onto
// text/event-stream, one SSE "message" event per Frame.
type StreamHandler struct {
	Orchestrator *orchestrator.Orchestrator
	Sessions     SessionCreator
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.SafeError(w, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sessionID := h.Sessions.Create(query)
	frames := h.Orchestrator.SearchStream(r.Context(), sessionID, query, dto.toLimits())
	for frame := range frames {
		payload, err := json.Marshal(frame)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}
