package search

import (
	"net/http"

	"catchup-feed/internal/orchestrator"
	"catchup-feed/pkg/export"
)

// Register wires the batch, streaming, and export search endpoints onto
// mux.
func Register(mux *http.ServeMux, orch *orchestrator.Orchestrator, sessions interface {
	SessionCreator
	SessionGetter
}, writer export.Writer) {
	mux.Handle("POST /search", BatchHandler{Orchestrator: orch})
	mux.Handle("POST /search/stream", StreamHandler{Orchestrator: orch, Sessions: sessions})
	mux.Handle("GET /search/{id}/export", ExportHandler{Sessions: sessions, Writer: writer})
}
