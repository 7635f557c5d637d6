package search

import (
	"errors"
	"net/http"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/pkg/export"
)

var errSessionNotFound = errors.New("search: session not found")

// SessionGetter is the subset of *session.Store an ExportHandler needs to
// read back a completed session's results. GetSession confirms the session
// exists; GetResults carries the results themselves, since GetSession's
// snapshot deliberately omits them (see session.Store.GetSession).
type SessionGetter interface {
	GetSession(id string) (entity.Session, bool)
	GetResults(id string) ([]entity.EventRecord, bool)
}

// ExportHandler serves a completed session's events as a downloadable file
// via the given export.Writer (CSV in production).
type ExportHandler struct {
	Sessions SessionGetter
	Writer   export.Writer
}

func (h ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respond.SafeError(w, http.StatusBadRequest, errSessionNotFound)
		return
	}

	if _, ok := h.Sessions.GetSession(id); !ok {
		respond.SafeError(w, http.StatusNotFound, errSessionNotFound)
		return
	}
	results, _ := h.Sessions.GetResults(id)
	if len(results) == 0 {
		respond.SafeError(w, http.StatusNotFound, export.ErrNoEvents)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="events-`+id+`.csv"`)
	if err := h.Writer.Write(w, results); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
}
