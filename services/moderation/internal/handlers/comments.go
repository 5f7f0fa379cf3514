package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/session"
)

type listCommentsResponse struct {
	Comments    []comment.Comment `json:"comments"`
	Total       int               `json:"total"`
	HasMore     bool              `json:"has_more"`
	CanLoadMore bool              `json:"can_load_more"`
}

// ListComments handles GET /v1/sites/{site_id}/comments. It pages over
// the locally-synchronized collection; fetching more from the server is
// a separate sync request.
func ListComments(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}

		offset := 0
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				offset = parsed
			}
		}
		limit := session.DefaultPageSize
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		s := m.Get(siteID)
		all := s.Store.All()

		if offset > len(all) {
			offset = len(all)
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}

		api.WriteJSON(w, http.StatusOK, listCommentsResponse{
			Comments:    all[offset:end],
			Total:       len(all),
			HasMore:     end < len(all),
			CanLoadMore: s.Controller.CanLoadMore(),
		})
	}
}

// GetComment handles GET /v1/sites/{site_id}/comments/{comment_id}.
// A comment with a moderation call in flight cannot be opened; the
// caller gets a conflict until the call resolves.
func GetComment(m *session.Manager) http.HandlerFunc {
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

		s := m.Get(siteID)
		if s.Tracker.InProgress(id) {
			api.Conflict(w, "MODERATION_IN_PROGRESS", "comment is being moderated", "")
			return
		}
		c, ok := s.Store.ByID(id)
		if !ok {
			api.NotFound(w, "NOT_FOUND", "comment not found", "")
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}
