package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/session"
)

type syncRequest struct {
	LoadMore bool `json:"load_more"`
}

type syncResponse struct {
	Accepted bool `json:"accepted"`
	LoadMore bool `json:"load_more"`
}

// RequestSync handles POST /v1/sites/{site_id}/sync. The fetch runs in
// the background; callers poll the state endpoint or subscribe to the
// event stream to see it land. An empty body means a plain refresh.
func RequestSync(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}

		var req syncRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil && err != io.EOF {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "")
			return
		}

		s := m.Get(siteID)
		if req.LoadMore && !s.Controller.CanLoadMore() {
			api.Conflict(w, "NO_MORE_COMMENTS", "no further pages to load", "")
			return
		}

		s.SyncInBackground(req.LoadMore)
		api.WriteJSON(w, http.StatusAccepted, syncResponse{Accepted: true, LoadMore: req.LoadMore})
	}
}

// CloseScope handles DELETE /v1/sites/{site_id}. It tears the scope's
// session down, cancelling any in-flight fetch.
func CloseScope(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}
		m.Close(siteID)
		w.WriteHeader(http.StatusNoContent)
	}
}
