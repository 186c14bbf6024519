// Package session keeps the signed-in state of a browser: the backend token
// in an HTTP-only cookie and a client-readable user record.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kalambet/calldash/internal/discovery"
)

const (
	// TokenCookie holds the backend bearer token. It is never exposed to scripts.
	TokenCookie = "token"
	// IDCookie names the browser's client-storage namespace.
	IDCookie = "sid"

	KeyUser          = "user"
	KeyAuthenticated = "isAuthenticated"

	DefaultMaxAge = 24 * time.Hour
	DefaultRole   = "Admin"

	idMaxAge = 365 * 24 * time.Hour
)

// Options control the cookies and the user record the manager writes.
type Options struct {
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
	Role     string

	// Now is overridable for tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.Role == "" {
		o.Role = DefaultRole
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Accessor reads and writes the session of one request.
type Accessor interface {
	Get() (discovery.User, bool)
	Set(email, token string) error
	Clear() error
	Token() string
}

// Manager binds Storage and cookie settings to individual requests.
type Manager struct {
	store Storage
	opts  Options
}

func NewManager(store Storage, opts Options) *Manager {
	return &Manager{store: store, opts: opts.withDefaults()}
}

// For returns the session of the browser that sent r. Writes go to w, so
// Set and Clear must be called before the response body is written.
func (m *Manager) For(w http.ResponseWriter, r *http.Request) *Session {
	s := &Session{m: m, w: w, r: r}
	if c, err := r.Cookie(IDCookie); err == nil && c.Value != "" {
		s.sid = c.Value
	}
	return s
}

// Session is the Accessor for a single request/response pair.
type Session struct {
	m   *Manager
	w   http.ResponseWriter
	r   *http.Request
	sid string
}

var _ Accessor = (*Session)(nil)

// Token returns the bearer token from the request cookie, or "".
func (s *Session) Token() string {
	c, err := s.r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Get returns the stored user record. A missing or malformed record is
// reported as absent.
func (s *Session) Get() (discovery.User, bool) {
	if s.sid == "" {
		return discovery.User{}, false
	}
	raw, ok, err := s.m.store.GetItem(s.r.Context(), s.sid, KeyUser)
	if err != nil {
		slog.Warn("reading session user", "error", err)
		return discovery.User{}, false
	}
	if !ok {
		return discovery.User{}, false
	}
	var u discovery.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return discovery.User{}, false
	}
	if u.Email == "" {
		return discovery.User{}, false
	}
	return u, true
}

// Set writes the token cookie and the user record derived from email.
func (s *Session) Set(email, token string) error {
	ctx := s.r.Context()
	if s.sid == "" {
		s.sid = uuid.NewString()
		http.SetCookie(s.w, s.m.cookie(IDCookie, s.sid, idMaxAge))
	}

	http.SetCookie(s.w, s.m.cookie(TokenCookie, token, s.m.tokenMaxAge(token)))

	user := discovery.User{
		Email: email,
		Name:  DisplayName(email),
		Role:  s.m.opts.Role,
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.m.store.SetItem(ctx, s.sid, KeyUser, string(b)); err != nil {
		return err
	}
	return s.m.store.SetItem(ctx, s.sid, KeyAuthenticated, "true")
}

// Clear expires the token cookie and removes the user record.
func (s *Session) Clear() error {
	http.SetCookie(s.w, s.m.cookie(TokenCookie, "", -1))
	if s.sid == "" {
		return nil
	}
	ctx := s.r.Context()
	if err := s.m.store.RemoveItem(ctx, s.sid, KeyUser); err != nil {
		return err
	}
	return s.m.store.RemoveItem(ctx, s.sid, KeyAuthenticated)
}

// Authenticated reports the client-readable flag, mirroring what a page
// script would read.
func (s *Session) Authenticated() bool {
	if s.sid == "" {
		return false
	}
	v, ok, err := s.m.store.GetItem(s.r.Context(), s.sid, KeyAuthenticated)
	return err == nil && ok && v == "true"
}

// Namespace returns the browser's storage namespace, or "" before the first Set.
func (s *Session) Namespace() string { return s.sid }

// cookie builds a cookie with the manager's attributes. A negative maxAge
// deletes it.
func (m *Manager) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge / time.Second)
	}
	return c
}

// tokenMaxAge is the configured lifetime, shortened to the token's own
// expiry when the token is a JWT that expires sooner.
func (m *Manager) tokenMaxAge(token string) time.Duration {
	maxAge := m.opts.MaxAge
	exp, ok := tokenExpiry(token)
	if !ok {
		return maxAge
	}
	if remaining := exp.Sub(m.opts.Now()); remaining > 0 && remaining < maxAge {
		return remaining.Truncate(time.Second)
	}
	return maxAge
}

// tokenExpiry reads the exp claim without verifying the signature. The
// backend remains the only judge of a token's validity.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
