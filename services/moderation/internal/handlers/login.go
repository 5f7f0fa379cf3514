package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/comments-console/internal/platform/api"
	"github.com/example/comments-console/services/moderation/internal/tokens"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login handles POST /v1/login for the single console operator account.
func Login(svc tokens.Service, operatorUser, operatorHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			api.BadRequest(w, "MISSING_CREDENTIALS", "username and password are required", "")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(operatorUser)) == 1
		passOK := bcrypt.CompareHashAndPassword([]byte(operatorHash), []byte(req.Password)) == nil
		if !userOK || !passOK {
			api.Unauthorized(w, "INVALID_CREDENTIALS", "invalid username or password", "")
			return
		}

		tok, exp, err := svc.NewAccessToken(req.Username, time.Now().UTC())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: tok, ExpiresAt: exp})
	}
}
