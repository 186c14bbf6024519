package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/discovery"
	"github.com/kalambet/calldash/internal/session"
)

// fakeGateway records how often each endpoint is hit.
type fakeGateway struct {
	mu   sync.Mutex
	hits map[string]int

	login    backend.LoginResult
	loginErr error

	industries    []discovery.Industry
	industriesErr error
	companies     []discovery.Company
	companiesErr  error
	industryCalls []discovery.Call
	industryErr   error
	companyCalls  []discovery.Call
	companyErr    error
	call          *discovery.Call
	callErr       error
	allCalls      []discovery.Call
	profile       *discovery.Profile

	lastToken string
}

func (f *fakeGateway) record(name, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hits == nil {
		f.hits = make(map[string]int)
	}
	f.hits[name]++
	f.lastToken = token
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[name]
}

func (f *fakeGateway) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *fakeGateway) Login(_ context.Context, _ backend.Credentials) (backend.LoginResult, error) {
	f.record("login", "")
	return f.login, f.loginErr
}

func (f *fakeGateway) Profile(_ context.Context, token string) (*discovery.Profile, error) {
	f.record("profile", token)
	return f.profile, nil
}

func (f *fakeGateway) Industries(_ context.Context, token string) ([]discovery.Industry, error) {
	f.record("industries", token)
	return f.industries, f.industriesErr
}

func (f *fakeGateway) CompaniesByIndustry(_ context.Context, token, _ string) ([]discovery.Company, error) {
	f.record("companies", token)
	return f.companies, f.companiesErr
}

func (f *fakeGateway) CallsByCompany(_ context.Context, token, _ string) ([]discovery.Call, error) {
	f.record("companyCalls", token)
	return f.companyCalls, f.companyErr
}

func (f *fakeGateway) CallsByIndustry(_ context.Context, token, _ string) ([]discovery.Call, error) {
	f.record("industryCalls", token)
	return f.industryCalls, f.industryErr
}

func (f *fakeGateway) GetCall(_ context.Context, token, _ string) (*discovery.Call, error) {
	f.record("call", token)
	return f.call, f.callErr
}

func (f *fakeGateway) Calls(_ context.Context, token string) ([]discovery.Call, error) {
	f.record("calls", token)
	return f.allCalls, nil
}

type testEnv struct {
	h     http.Handler
	gw    *fakeGateway
	store *session.MemoryStorage
}

func newTestEnv(t *testing.T, gw *fakeGateway) *testEnv {
	t.Helper()
	store := session.NewMemoryStorage()
	mgr := session.NewManager(store, session.Options{Secure: true})
	return &testEnv{
		h:     NewHandler(Deps{Gateway: gw, Sessions: mgr}),
		gw:    gw,
		store: store,
	}
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

// signedIn returns cookies for a browser whose user record is stored.
func (e *testEnv) signedIn(t *testing.T) []*http.Cookie {
	t.Helper()
	ctx := context.Background()
	if err := e.store.SetItem(ctx, "browser-1", session.KeyUser, `{"email":"admin@consultadd.com","name":"Admin","role":"Admin"}`); err != nil {
		t.Fatalf("SetItem(user): %v", err)
	}
	if err := e.store.SetItem(ctx, "browser-1", session.KeyAuthenticated, "true"); err != nil {
		t.Fatalf("SetItem(isAuthenticated): %v", err)
	}
	return []*http.Cookie{
		{Name: session.TokenCookie, Value: "abc123"},
		{Name: session.IDCookie, Value: "browser-1"},
	}
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// bodyHas fails the test for every want missing from the response body.
func bodyHas(t *testing.T, rr *httptest.ResponseRecorder, wants ...string) {
	t.Helper()
	body := rr.Body.String()
	for _, w := range wants {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

func bodyLacks(t *testing.T, rr *httptest.ResponseRecorder, unwanted ...string) {
	t.Helper()
	body := rr.Body.String()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d", rr.Code, want)
	}
}

func TestGuard(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industries: discovery.FallbackIndustries()})
	token := &http.Cookie{Name: session.TokenCookie, Value: "abc123"}

	cases := []struct {
		name     string
		path     string
		cookies  []*http.Cookie
		status   int
		location string
	}{
		{"signed out landing", "/", nil, http.StatusFound, "/login"},
		{"signed out industry", "/industry/healthcare", nil, http.StatusFound, "/login"},
		{"signed out call", "/call/1?tab=problems", nil, http.StatusFound, "/login"},
		{"signed out login", "/login", nil, http.StatusOK, ""},
		{"signed in login", "/login", []*http.Cookie{token}, http.StatusFound, "/"},
		{"signed in landing", "/", []*http.Cookie{token}, http.StatusOK, ""},
		{"empty token cookie", "/", []*http.Cookie{{Name: session.TokenCookie, Value: ""}}, http.StatusFound, "/login"},
		{"health exempt", "/health", nil, http.StatusOK, ""},
		{"static exempt", "/static/app.css", nil, http.StatusOK, ""},
		{"api exempt", "/api/session", nil, http.StatusOK, ""},
		{"favicon exempt", "/favicon.ico", nil, http.StatusNoContent, ""},
		{"health lookalike", "/healthcheck", nil, http.StatusFound, "/login"},
		{"health subpath", "/health-internal/report", nil, http.StatusFound, "/login"},
		{"favicon lookalike", "/favicon.icoX", nil, http.StatusFound, "/login"},
		{"static without slash", "/staticfiles", nil, http.StatusFound, "/login"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := env.get(c.path, c.cookies...)
			if rr.Code != c.status {
				t.Errorf("%s: status = %d, want %d", c.path, rr.Code, c.status)
			}
			if got := rr.Header().Get("Location"); got != c.location {
				t.Errorf("%s: Location = %q, want %q", c.path, got, c.location)
			}
		})
	}
}

func TestGuard_NoFetchWhenSignedOut(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	for _, p := range []string{"/", "/industry/x", "/company/1", "/call/1", "/calls", "/profile"} {
		env.get(p)
	}
	if n := env.gw.total(); n != 0 {
		t.Errorf("backend hit %d times while signed out, want 0", n)
	}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{login: backend.LoginResult{Token: "abc123"}})

	rr := env.post("/login", url.Values{"email": {"admin@consultadd.com"}, "password": {"Admin@123"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	tok := cookieNamed(rr, session.TokenCookie)
	if tok == nil {
		t.Fatal("no token cookie set")
	}
	if tok.Value != "abc123" {
		t.Errorf("token = %q, want abc123", tok.Value)
	}
	if !tok.HttpOnly || !tok.Secure {
		t.Errorf("token cookie HttpOnly=%v Secure=%v, want both true", tok.HttpOnly, tok.Secure)
	}

	sid := cookieNamed(rr, session.IDCookie)
	if sid == nil {
		t.Fatal("no sid cookie set")
	}

	flag, ok, err := env.store.GetItem(context.Background(), sid.Value, session.KeyAuthenticated)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok || flag != "true" {
		t.Errorf("isAuthenticated = (%q, %v), want (true, true)", flag, ok)
	}

	info := env.get("/api/session", &http.Cookie{Name: session.IDCookie, Value: sid.Value})
	var body struct {
		Authenticated bool           `json:"authenticated"`
		User          discovery.User `json:"user"`
	}
	if err := json.NewDecoder(info.Body).Decode(&body); err != nil {
		t.Fatalf("decoding /api/session: %v", err)
	}
	if !body.Authenticated {
		t.Error("authenticated = false, want true")
	}
	want := discovery.User{Name: "Admin", Email: "admin@consultadd.com", Role: "Admin"}
	if body.User != want {
		t.Errorf("user = %+v, want %+v", body.User, want)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	rr := env.post("/login", url.Values{"email": {"admin@consultadd.com"}})
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr, "Please enter both email and password")
	if n := env.gw.count("login"); n != 0 {
		t.Errorf("login called %d times, want 0", n)
	}
	if cookieNamed(rr, session.TokenCookie) != nil {
		t.Error("token cookie set on validation failure")
	}
}

func TestLogin_BackendMessage(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{loginErr: &backend.ApplicationError{Message: "Invalid credentials"}})

	rr := env.post("/login", url.Values{"email": {"a@b.c"}, "password": {"nope"}})
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr, "Invalid credentials")
	if cookieNamed(rr, session.TokenCookie) != nil {
		t.Error("token cookie set on failed login")
	}
}

func TestLogin_NoTokenIsFailure(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{loginErr: &backend.ShapeError{Endpoint: backend.PathLogin, Reason: "no session token in response"}})

	rr := env.post("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}})
	bodyHas(t, rr, "Login failed")
	bodyLacks(t, rr, "no session token")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookies := env.signedIn(t)

	rr := env.post("/logout", nil, cookies...)
	wantStatus(t, rr, http.StatusSeeOther)
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	tok := cookieNamed(rr, session.TokenCookie)
	if tok == nil {
		t.Fatal("token cookie not cleared")
	}
	if tok.MaxAge != -1 {
		t.Errorf("token MaxAge = %d, want -1", tok.MaxAge)
	}

	if _, ok, _ := env.store.GetItem(context.Background(), "browser-1", session.KeyUser); ok {
		t.Error("user record survived logout")
	}
}

func TestIndustries_EmptyIsNotFallback(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industries: []discovery.Industry{}})

	rr := env.get("/", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr, "No Industries Found")
	bodyLacks(t, rr, "Technology &amp; Software")
}

func TestIndustries_FallbackOnFailure(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industriesErr: &backend.TransportError{Status: 503}})

	rr := env.get("/", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr, "Showing default industries", "Healthcare", `href="/industry/technology_software"`)
}

func TestIndustries_Ready(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industries: []discovery.Industry{
		{ID: "7", IndustryCode: "AEROSPACE", Name: "Aerospace", Icon: "✈"},
	}})

	rr := env.get("/", env.signedIn(t)...)
	bodyHas(t, rr, "Aerospace", `href="/industry/aerospace"`)
	bodyLacks(t, rr, "Showing default industries")
	if env.gw.lastToken != "abc123" {
		t.Errorf("token sent = %q, want abc123", env.gw.lastToken)
	}
}

func TestIndustry_AnalyticsAndDegradedCalls(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{
		companies: []discovery.Company{
			{ID: "c1", CompanyName: "Acme", SubIndustry: "Telemedicine"},
			{ID: "c2", CompanyName: "Globex", SubIndustry: "Telemedicine"},
			{ID: "c3", CompanyName: "Initech"},
		},
		industryErr: &backend.NetworkError{Endpoint: "/calls/industry/healthcare"},
	})

	rr := env.get("/industry/healthcare?view=companies", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr,
		"Telemedicine",
		"67%",
		"Problem analysis unavailable",
		`href="/company/c1"`,
		`data-panel="companies" >`,
	)
	if n := env.gw.count("companies"); n != 1 {
		t.Errorf("companies fetched %d times, want 1", n)
	}
	if n := env.gw.count("industryCalls"); n != 1 {
		t.Errorf("industry calls fetched %d times, want 1", n)
	}
}

func TestIndustry_SectorAlias(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companies: []discovery.Company{{ID: "c1", CompanyName: "Acme"}}})

	rr := env.get("/sector/healthcare", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusOK)
	bodyHas(t, rr, `data-panel="analytics" >`)
}

func TestIndustry_CompaniesErrorIsError(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companiesErr: &backend.ApplicationError{Message: "Unknown industry"}})

	rr := env.get("/industry/nowhere", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusBadGateway)
	bodyHas(t, rr, "Unknown industry")
}

func TestIndustry_NoCompanies(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companies: nil})

	rr := env.get("/industry/healthcare", env.signedIn(t)...)
	bodyHas(t, rr, "No Companies Found")
}

func TestCompany_TransportErrorMessage(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companyErr: &backend.TransportError{Status: 500, Body: `{"message":"database unavailable"}`}})

	rr := env.get("/company/c1", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusBadGateway)
	bodyHas(t, rr, "database unavailable")
}

func TestCompany_Calls(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companyCalls: []discovery.Call{
		{ID: "k1", CompanyName: "Acme", Stage: "Demo Scheduled"},
		{ID: "k2", CompanyName: "Acme", Stage: "Closed Lost"},
	}})

	rr := env.get("/company/c1", env.signedIn(t)...)
	bodyHas(t, rr, "<h1>Acme</h1>", "2 Calls", "badge-secondary", "badge-destructive")
}

func TestCompany_Empty(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{companyCalls: []discovery.Call{}})

	rr := env.get("/company/c1", env.signedIn(t)...)
	bodyHas(t, rr, "No Calls Found")
}

func sampleCall() *discovery.Call {
	return &discovery.Call{
		ID:          "42",
		CompanyID:   "c1",
		CompanyName: "Acme",
		Stage:       "Qualified",
		CallSummary: "Discussed onboarding delays.",
		ClientProblems: []discovery.ClientProblem{
			{ProblemStatement: "Slow onboarding", Tag: discovery.TagImmediate, Category: "Operations"},
		},
		SummaryRows: []discovery.SummaryRow{
			{Problem: "Slow onboarding", SolutionPitched: "Automation", ClientReaction: "Positive - wants a pilot"},
		},
		KeyTakeaways: []string{"Budget approved for Q3"},
	}
}

func TestCall_TabSwitchDoesNotRefetch(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{call: sampleCall()})

	rr := env.get("/call/42?tab=problems", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusOK)
	if n := env.gw.count("call"); n != 1 {
		t.Errorf("call fetched %d times, want 1", n)
	}

	for _, tab := range []string{"overview", "problems", "solutions", "analysis", "takeaways"} {
		bodyHas(t, rr, `data-panel="`+tab+`"`)
	}
	bodyHas(t, rr,
		`data-panel="problems" >`,
		`data-panel="overview" hidden>`,
		"Budget approved for Q3",
		"Positive",
		"wants a pilot",
	)
}

func TestCall_UnknownTabIsOverview(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{call: sampleCall()})

	rr := env.get("/call/42?tab=bogus", env.signedIn(t)...)
	bodyHas(t, rr, `data-panel="overview" >`)
}

func TestCall_NotFound(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	rr := env.get("/call/404", env.signedIn(t)...)
	wantStatus(t, rr, http.StatusNotFound)
	bodyHas(t, rr, "Call Not Found")
}

func TestNavbar_MalformedUserHasNoAvatar(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industries: discovery.FallbackIndustries()})
	if err := env.store.SetItem(context.Background(), "browser-1", session.KeyUser, `{oops`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	rr := env.get("/",
		&http.Cookie{Name: session.TokenCookie, Value: "abc123"},
		&http.Cookie{Name: session.IDCookie, Value: "browser-1"},
	)
	wantStatus(t, rr, http.StatusOK)
	bodyLacks(t, rr, `class="avatar"`)
}

func TestNavbar_ShowsInitials(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{industries: discovery.FallbackIndustries()})

	rr := env.get("/", env.signedIn(t)...)
	bodyHas(t, rr, `class="avatar"`, ">A</summary>")
}

func TestCallsAndProfile(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{
		allCalls: []discovery.Call{{ID: "a", CompanyName: "Acme"}},
		profile:  &discovery.Profile{ID: "u1", Email: "admin@consultadd.com", Role: "ADMIN"},
	})
	cookies := env.signedIn(t)

	bodyHas(t, env.get("/calls", cookies...), `href="/call/a"`)
	bodyHas(t, env.get("/profile", cookies...), "ADMIN")
}

func TestAPISession_SignedOut(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	rr := env.get("/api/session")
	if got := strings.TrimSpace(rr.Body.String()); got != `{"authenticated":false}` {
		t.Errorf("body = %s, want {\"authenticated\":false}", got)
	}
}

func TestAPINotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	rr := env.get("/api/nope")
	wantStatus(t, rr, http.StatusNotFound)
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	rr := env.get("/health")
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding /health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestPieGradient(t *testing.T) {
	got := string(pieGradient([]discovery.SubcategoryShare{
		{Name: "A", Percent: 67},
		{Name: "B", Percent: 33},
	}))
	want := "conic-gradient(#3b82f6 0% 67%, #10b981 67% 100%)"
	if got != want {
		t.Errorf("pieGradient = %q, want %q", got, want)
	}
	if got := string(pieGradient(nil)); got != "#e5e7eb" {
		t.Errorf("pieGradient(nil) = %q, want #e5e7eb", got)
	}
}
