package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/comment"
	"github.com/example/comments-console/services/moderation/internal/session"
)

type moderateRequest struct {
	Status string `json:"status"`

	// Confirm acknowledges a destructive action; required for trash.
	Confirm bool `json:"confirm"`
}

type moderateResponse struct {
	Status       string        `json:"status"`
	CommentCount int           `json:"comment_count"`
	Presentation session.State `json:"presentation"`
}

// Moderate handles POST /v1/sites/{site_id}/moderate, applying the
// requested status to the current selection.
func Moderate(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := strings.TrimSpace(chi.URLParam(r, "site_id"))
		if siteID == "" {
			api.BadRequest(w, "MISSING_ID", "site_id is required", "")
			return
		}

		var req moderateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "")
			return
		}
		status, err := comment.ParseStatus(strings.TrimSpace(req.Status))
		if err != nil {
			api.BadRequest(w, "INVALID_STATUS", err.Error(), "")
			return
		}
		if status == comment.StatusTrash && !req.Confirm {
			api.Conflict(w, "CONFIRM_REQUIRED", "trashing comments requires confirm=true", "")
			return
		}

		s := m.Get(siteID)
		if !s.Selection.Active() {
			api.Conflict(w, "NO_ACTIVE_SELECTION", "no multi-select session is active", "")
			return
		}

		if err := s.Moderator.Moderate(r.Context(), status); err != nil {
			switch {
			case errors.Is(err, session.ErrNetworkUnavailable):
				api.Unavailable(w, "NETWORK_UNAVAILABLE", "upstream is unreachable", "")
			case errors.Is(err, session.ErrConfirmRequired):
				api.Conflict(w, "CONFIRM_REQUIRED", "trashing comments requires confirmation", "")
			default:
				api.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "moderating comments failed", "")
			}
			return
		}

		api.WriteJSON(w, http.StatusOK, moderateResponse{
			Status:       string(status),
			CommentCount: s.Store.Count(),
			Presentation: s.Controller.Presentation(),
		})
	}
}
