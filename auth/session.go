package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
)

const cookieName = "distribuidores_login"

// Session is the opaque identity carried by the signed cookie.
type Session struct {
	User  string `json:"user"`
	Level string `json:"level"`
}

// Editor reports whether this session may perform mutating operations.
func (s Session) Editor() bool {
	return s.Level == LevelEditor
}

// SessionManager signs and encrypts the login cookie.
type SessionManager struct {
	sc *securecookie.SecureCookie
}

// NewSessionManager builds a manager from hash/block keys. blockKey may be
// nil for signed-but-not-encrypted cookies.
func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	return &SessionManager{sc: securecookie.New(hashKey, blockKey)}
}

// Issue writes the session cookie for a logged-in user.
func (m *SessionManager) Issue(w http.ResponseWriter, sess Session) error {
	encoded, err := m.sc.Encode(cookieName, sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get decodes the session from the request cookie.
func (m *SessionManager) Get(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := m.sc.Decode(cookieName, c.Value, &sess); err != nil {
		return Session{}, false
	}
	if sess.User == "" || sess.Level == "" {
		return Session{}, false
	}
	return sess, true
}

type contextKey struct{}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}

// WithSession attaches the decoded session (if any) to the request
// context. It never rejects: read-only access needs no login.
func (m *SessionManager) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := m.Get(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), contextKey{}, sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEditor rejects requests whose session lacks the editor level.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "login required"}`))
			return
		}
		if !sess.Editor() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "editor access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
