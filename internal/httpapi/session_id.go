package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	CookieName    = "pieza_session"
	SessionHeader = "X-Session-ID"
	maxIDLength   = 64
)

func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// SessionID reads the session id from the X-Session-ID header or the session cookie.
func SessionID(r *http.Request) (string, bool) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); validID(id) {
		return id, true
	}
	return CookieSessionID(r)
}

// CookieSessionID reads the session id from the session cookie only.
func CookieSessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && validID(c.Value) {
		return c.Value, true
	}
	return "", false
}

// EnsureSession returns the caller's session id, issuing a new cookie when there is none.
func EnsureSession(w http.ResponseWriter, r *http.Request, secure bool) string {
	if id, ok := SessionID(r); ok {
		return id
	}
	return issue(w, secure)
}

// EnsureCookieSession is EnsureSession for browser pages, where the header is ignored.
func EnsureCookieSession(w http.ResponseWriter, r *http.Request, secure bool) string {
	if id, ok := CookieSessionID(r); ok {
		return id
	}
	return issue(w, secure)
}

func issue(w http.ResponseWriter, secure bool) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
