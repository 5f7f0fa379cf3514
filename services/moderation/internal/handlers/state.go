package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/session"
)

type selectionState struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`

	// Which batch actions apply to the current selection.
	CanApprove   bool `json:"can_approve"`
	CanUnapprove bool `json:"can_unapprove"`
	CanSpam      bool `json:"can_spam"`
	CanTrash     bool `json:"can_trash"`
}

type stateResponse struct {
	Presentation session.State  `json:"presentation"`
	CommentCount int            `json:"comment_count"`
	Fetching     bool           `json:"fetching"`
	CanLoadMore  bool           `json:"can_load_more"`
	Selection    selectionState `json:"selection"`
}

// GetState handles GET /v1/sites/{site_id}/state. Everything in the
// response is derived on the spot; nothing here is stored.
func GetState(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}

		s := m.Get(siteID)
		sel := selectionState{
			Active: s.Selection.Active(),
			Count:  s.Selection.Count(),
		}
		if sel.Active && sel.Count > 0 {
			sel.CanApprove = s.Selection.HasStatus(comment.StatusUnapproved) ||
				s.Selection.HasStatus(comment.StatusSpam)
			sel.CanUnapprove = s.Selection.HasStatus(comment.StatusApproved)
			sel.CanSpam = s.Selection.LacksStatus(comment.StatusSpam)
			sel.CanTrash = true
		}

		api.WriteJSON(w, http.StatusOK, stateResponse{
			Presentation: s.Controller.Presentation(),
			CommentCount: s.Store.Count(),
			Fetching:     s.Controller.Fetching(),
			CanLoadMore:  s.Controller.CanLoadMore(),
			Selection:    sel,
		})
	}
}
