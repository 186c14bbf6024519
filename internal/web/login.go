package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/calldash/internal/backend"
)

const (
	msgMissingFields = "Please enter both email and password"
	msgLoginFailed   = "Login failed"
)

type loginPage struct {
	Email string
	Error string
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.For(w, r)
	s.pages.render(w, http.StatusOK, "login", s.view(sess, "Sign in", false, loginPage{}))
}

// handleLogin proxies the credentials to the backend. On success the
// session is persisted before the redirect so the landing page already
// sees the cookie.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		s.renderLogin(w, r, http.StatusBadRequest, "", msgLoginFailed)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		s.renderLogin(w, r, http.StatusOK, email, msgMissingFields)
		return
	}

	res, err := s.gw.Login(r.Context(), backend.Credentials{Email: email, Password: password})
	if err != nil {
		slog.Info("login rejected", "email", email, "error", err)
		s.renderLogin(w, r, http.StatusOK, email, loginErrorMessage(err))
		return
	}

	if err := s.sessions.For(w, r).Set(email, res.Token); err != nil {
		slog.Error("persisting session", "error", err)
		s.renderLogin(w, r, http.StatusInternalServerError, email, msgLoginFailed)
		return
	}
	http.Redirect(w, r, LandingPath, http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.For(w, r).Clear(); err != nil {
		slog.Warn("clearing session", "error", err)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (s *server) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	sess := s.sessions.For(w, r)
	s.pages.render(w, status, "login", s.view(sess, "Sign in", false, loginPage{Email: email, Error: msg}))
}

// loginErrorMessage prefers the backend's own wording. A response that
// carried no token is reported as a plain failure.
func loginErrorMessage(err error) string {
	var shapeErr *backend.ShapeError
	if errors.As(err, &shapeErr) {
		return msgLoginFailed
	}
	if msg := backend.UserMessage(err); msg != "" {
		return msg
	}
	return msgLoginFailed
}

const maxFormSize = 64 << 10
