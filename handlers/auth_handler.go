package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  string `json:"user"`
	Level string `json:"level"`
}

// Login checks the credentials against the user file and issues the
// session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	level, ok := h.Users.Authenticate(req.Username, req.Password)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
		return
	}

	sess := auth.Session{User: req.Username, Level: level}
	if err := h.Sessions.Issue(w, sess); err != nil {
		log.Error().Err(err).Msg("issuing session cookie")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create session"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: sess.User, Level: sess.Level})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Session reports the current login, if any.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: sess.User, Level: sess.Level})
}
