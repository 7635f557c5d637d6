// Package social exposes the content aggregator over HTTP.
package social

import (
	"net/http"
	"strconv"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/social"
)

// ContentHandler serves GET /social/content?url=...&platform=...&refresh=...&model=...
type ContentHandler struct {
	Aggregator *social.Aggregator
}

func (h ContentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	url := q.Get("url")
	if url == "" {
		respond.SafeError(w, http.StatusBadRequest, errMissingURL)
		return
	}

	forceRefresh, _ := strconv.ParseBool(q.Get("refresh"))
	record, err := h.Aggregator.FetchContent(r.Context(), url, entity.Platform(q.Get("platform")), forceRefresh, q.Get("model"))
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, err)
		return
	}
	respond.JSON(w, http.StatusOK, record)
}

// Register wires the content aggregator's HTTP surface onto mux.
func Register(mux *http.ServeMux, aggregator *social.Aggregator) {
	mux.Handle("GET /social/content", ContentHandler{Aggregator: aggregator})
}
