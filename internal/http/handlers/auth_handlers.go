package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"goldbook/internal/service"
)

type loginRequest struct {
	BookID   string `json:"bookid"`
	Password string `json:"password"`
}

// NewLoginHandler returns POST /auth/login handler. Member sign-in is a
// presence lookup by book id.
func NewLoginHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.BookID) == "" {
			writeError(w, http.StatusBadRequest, "bookid is required")
			return
		}

		account, token, err := sessions.Authenticate(r.Context(), req.BookID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"account": account,
			"token":   token,
		})
	}
}

// NewAdminLoginHandler returns POST /auth/admin-login handler.
func NewAdminLoginHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.BookID) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "bookid and password are required")
			return
		}

		account, token, err := sessions.AuthenticateAdmin(r.Context(), req.BookID, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"account": account,
			"token":   token,
		})
	}
}

// NewLogoutHandler returns POST /auth/logout handler. Always succeeds locally.
func NewLogoutHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.SignOut(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	}
}

// NewSessionHandler returns GET /session handler: the cached session, falling
// back to the persisted one, without contacting the directory.
func NewSessionHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if account, ok := sessions.Current(); ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
			return
		}

		account, err := sessions.Restore(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
	}
}
