package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kalambet/calldash/internal/discovery"
)

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// carry builds a follow-up request that sends back the cookies set by rec.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func TestSet_WritesCookieAndUser(t *testing.T) {
	store := NewMemoryStorage()
	m := NewManager(store, Options{Secure: true})

	rec := httptest.NewRecorder()
	s := m.For(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if err := s.Set("admin@consultadd.com", "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cookies := rec.Result().Cookies()
	tok := findCookie(cookies, TokenCookie)
	if tok == nil {
		t.Fatal("no token cookie")
	}
	if tok.Value != "abc123" {
		t.Errorf("token = %q, want abc123", tok.Value)
	}
	if !tok.HttpOnly || !tok.Secure {
		t.Errorf("HttpOnly=%v Secure=%v, want both true", tok.HttpOnly, tok.Secure)
	}
	if tok.Path != "/" {
		t.Errorf("Path = %q, want /", tok.Path)
	}
	if tok.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", tok.MaxAge)
	}
	if tok.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", tok.SameSite)
	}

	sid := findCookie(cookies, IDCookie)
	if sid == nil || sid.Value == "" {
		t.Fatal("no sid cookie")
	}

	next := m.For(httptest.NewRecorder(), carry(rec))
	if got := next.Token(); got != "abc123" {
		t.Errorf("Token() = %q, want abc123", got)
	}

	user, ok := next.Get()
	if !ok {
		t.Fatal("Get() found no user after Set")
	}
	want := discovery.User{Email: "admin@consultadd.com", Name: "Admin", Role: "Admin"}
	if user != want {
		t.Errorf("user = %+v, want %+v", user, want)
	}
	if !next.Authenticated() {
		t.Error("Authenticated() = false, want true")
	}

	flag, ok, err := store.GetItem(next.r.Context(), sid.Value, KeyAuthenticated)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || flag != "true" {
		t.Errorf("isAuthenticated = (%q, %v), want (true, true)", flag, ok)
	}
}

func TestSet_ReusesExistingNamespace(t *testing.T) {
	m := NewManager(NewMemoryStorage(), Options{})

	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.AddCookie(&http.Cookie{Name: IDCookie, Value: "browser-1"})
	rec := httptest.NewRecorder()

	s := m.For(rec, r)
	if err := s.Set("a@b.c", "t"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if findCookie(rec.Result().Cookies(), IDCookie) != nil {
		t.Error("sid cookie re-issued for a known browser")
	}
	if ns := s.Namespace(); ns != "browser-1" {
		t.Errorf("Namespace() = %q, want browser-1", ns)
	}
}

func TestGet_NoSession(t *testing.T) {
	m := NewManager(NewMemoryStorage(), Options{})
	s := m.For(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if _, ok := s.Get(); ok {
		t.Error("Get() found a user without a session")
	}
	if tok := s.Token(); tok != "" {
		t.Errorf("Token() = %q, want empty", tok)
	}
	if s.Authenticated() {
		t.Error("Authenticated() = true, want false")
	}
}

func TestGet_MalformedUserIsAbsent(t *testing.T) {
	store := NewMemoryStorage()
	m := NewManager(store, Options{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: IDCookie, Value: "browser-1"})

	for _, raw := range []string{`{not json`, `"just a string"`, `{}`, `null`} {
		if err := store.SetItem(r.Context(), "browser-1", KeyUser, raw); err != nil {
			t.Fatalf("SetItem: %v", err)
		}
		if _, ok := m.For(httptest.NewRecorder(), r).Get(); ok {
			t.Errorf("user %q should read as absent", raw)
		}
	}
}

func TestClear(t *testing.T) {
	store := NewMemoryStorage()
	m := NewManager(store, Options{})

	rec := httptest.NewRecorder()
	if err := m.For(rec, httptest.NewRequest(http.MethodPost, "/login", nil)).Set("a@b.c", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out := httptest.NewRecorder()
	s := m.For(out, carry(rec))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	tok := findCookie(out.Result().Cookies(), TokenCookie)
	if tok == nil {
		t.Fatal("token cookie not expired")
	}
	if tok.MaxAge != -1 || tok.Value != "" {
		t.Errorf("token cookie = (%q, MaxAge %d), want (\"\", -1)", tok.Value, tok.MaxAge)
	}

	if _, ok := s.Get(); ok {
		t.Error("user survived Clear")
	}
	if s.Authenticated() {
		t.Error("Authenticated() = true after Clear")
	}
}

func TestClear_WithoutNamespace(t *testing.T) {
	m := NewManager(NewMemoryStorage(), Options{})
	rec := httptest.NewRecorder()
	if err := m.For(rec, httptest.NewRequest(http.MethodPost, "/logout", nil)).Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if findCookie(rec.Result().Cookies(), TokenCookie) == nil {
		t.Error("token cookie not expired")
	}
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestTokenMaxAge_ClampedToJWTExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryStorage(), Options{Now: func() time.Time { return now }})

	tok := signedToken(t, jwt.MapClaims{"sub": "admin", "exp": now.Add(2 * time.Hour).Unix()})
	if got := m.tokenMaxAge(tok); got != 2*time.Hour {
		t.Errorf("tokenMaxAge = %v, want 2h", got)
	}
}

func TestTokenMaxAge_LongLivedJWTKeepsConfigured(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryStorage(), Options{MaxAge: time.Hour, Now: func() time.Time { return now }})

	tok := signedToken(t, jwt.MapClaims{"exp": now.Add(30 * 24 * time.Hour).Unix()})
	if got := m.tokenMaxAge(tok); got != time.Hour {
		t.Errorf("tokenMaxAge = %v, want 1h", got)
	}
}

func TestTokenMaxAge_OpaqueToken(t *testing.T) {
	m := NewManager(NewMemoryStorage(), Options{})
	if got := m.tokenMaxAge("abc123"); got != DefaultMaxAge {
		t.Errorf("tokenMaxAge = %v, want %v", got, DefaultMaxAge)
	}
}

func TestOptions_SameSiteNone(t *testing.T) {
	m := NewManager(NewMemoryStorage(), Options{SameSite: http.SameSiteNoneMode, Secure: true, Role: "Viewer"})
	rec := httptest.NewRecorder()
	if err := m.For(rec, httptest.NewRequest(http.MethodPost, "/login", nil)).Set("jane.doe@example.com", "t"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	tok := findCookie(rec.Result().Cookies(), TokenCookie)
	if tok == nil {
		t.Fatal("no token cookie")
	}
	if tok.SameSite != http.SameSiteNoneMode {
		t.Errorf("SameSite = %v, want None", tok.SameSite)
	}

	u, ok := m.For(httptest.NewRecorder(), carry(rec)).Get()
	if !ok {
		t.Fatal("Get() found no user")
	}
	if u.Role != "Viewer" || u.Name != "Jane Doe" {
		t.Errorf("user = %+v, want Jane Doe / Viewer", u)
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"admin@consultadd.com":   "Admin",
		"jane.doe@example.com":   "Jane Doe",
		"JOHN_SMITH@corp.io":     "John Smith",
		"mary-jane.watson@x.com": "Mary-jane Watson",
		"john+sales@x.com":       "John+sales",
		"no-at-sign":             "No-at-sign",
		"":                       "",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"Admin":            "A",
		"Jane Doe":         "JD",
		"mary jane watson": "MJ",
		"":                 "",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}
