package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/session"
)

type setSelectedRequest struct {
	Selected bool `json:"selected"`
}

type selectionResponse struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// StartSelection handles POST /v1/sites/{site_id}/selection.
func StartSelection(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}
		s := m.Get(siteID)
		s.Selection.StartSession()
		api.WriteJSON(w, http.StatusOK, selectionResponse{Active: true, Count: s.Selection.Count()})
	}
}

// EndSelection handles DELETE /v1/sites/{site_id}/selection.
func EndSelection(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}
		m.Get(siteID).Selection.EndSession()
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetSelected handles PUT /v1/sites/{site_id}/selection/{comment_id}.
// Deselecting the last comment ends the session, mirroring how an
// empty multi-select has nothing left to act on.
func SetSelected(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}
		id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "comment_id")), 10, 64)
		if err != nil {
			api.BadRequest(w, "INVALID_ID", "comment_id must be an integer", "")
			return
		}

		var req setSelectedRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "")
			return
		}

		s := m.Get(siteID)
		if !s.Selection.Active() {
			api.Conflict(w, "NO_ACTIVE_SELECTION", "no multi-select session is active", "")
			return
		}
		if _, ok := s.Store.ByID(id); !ok {
			api.NotFound(w, "NOT_FOUND", "comment not found", "")
			return
		}

		s.Selection.SetSelected(id, req.Selected)
		if s.Selection.Count() == 0 {
			s.Selection.EndSession()
		}
		api.WriteJSON(w, http.StatusOK, selectionResponse{
			Active: s.Selection.Active(),
			Count:  s.Selection.Count(),
		})
	}
}
