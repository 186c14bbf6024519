package web

import (
	"net/http"
	"strings"

	"github.com/kalambet/calldash/internal/session"
)

const (
	LoginPath   = "/login"
	LandingPath = "/"
)

var (
	// exemptPrefixes cover assets and the JSON API.
	exemptPrefixes = []string{"/static/", "/api/"}
	// exemptPaths match exactly.
	exemptPaths = []string{"/favicon.ico", "/health"}
)

func exempt(path string) bool {
	for _, p := range exemptPaths {
		if path == p {
			return true
		}
	}
	for _, p := range exemptPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// authenticated reports whether the request carries a non-empty token
// cookie. The token is not verified here; the backend rejects bad ones.
func authenticated(r *http.Request) bool {
	c, err := r.Cookie(session.TokenCookie)
	return err == nil && c.Value != ""
}

// Guard redirects signed-out browsers to the login page and signed-in
// browsers away from it. It is evaluated on every request.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if exempt(path) {
			next.ServeHTTP(w, r)
			return
		}

		authed := authenticated(r)
		switch {
		case path == LoginPath && authed:
			http.Redirect(w, r, LandingPath, http.StatusFound)
		case path != LoginPath && !authed:
			http.Redirect(w, r, LoginPath, http.StatusFound)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
