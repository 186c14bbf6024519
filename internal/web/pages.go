package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/discovery"
	"github.com/kalambet/calldash/internal/page"
	"github.com/kalambet/calldash/internal/session"
)

type industryPage struct {
	Code      string
	Slug      string
	Label     string
	View      page.SectorView
	Companies page.Result[[]discovery.Company]
	Analytics discovery.SectorAnalytics
	// CallsMessage is set when the calls behind the problem breakdown could
	// not be loaded. The rest of the page is unaffected.
	CallsMessage string
}

type industryCallsPage struct {
	Slug  string
	Label string
	Calls page.Result[[]discovery.Call]
}

type companyPage struct {
	ID    string
	Name  string
	Calls page.Result[[]discovery.Call]
}

type callPage struct {
	Call   page.Result[*discovery.Call]
	Active page.CallTab
	Tabs   []page.TabInfo
}

// requireSession re-checks the token before any fetch. The guard has
// already run, but a page must never call the backend without a token.
func (s *server) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := s.sessions.For(w, r)
	if sess.Token() == "" {
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return nil, false
	}
	return sess, true
}

// view assembles the layout data, including the navbar user when the
// stored record is readable.
func (s *server) view(sess *session.Session, title string, showBack bool, data any) view {
	v := view{Title: title, ShowBack: showBack, Page: data}
	if u, ok := sess.Get(); ok {
		v.User = &u
		v.Initials = session.Initials(u.Name)
	}
	return v
}

func statusFor(st page.State) int {
	if st == page.Error {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func (s *server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	res := page.Fetch(r.Context(),
		func(ctx context.Context) ([]discovery.Industry, error) {
			return s.gw.Industries(ctx, sess.Token())
		},
		page.WithEmpty[[]discovery.Industry](page.NoIndustries),
		page.WithFallback(discovery.FallbackIndustries),
	)
	s.pages.render(w, statusFor(res.State), "industries", s.view(sess, "Organization Dashboard", false, res))
}

// handleIndustry serves the sector page. Companies and the legacy
// per-industry calls are fetched together; only the companies decide the
// page state.
func (s *server) handleIndustry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	token := sess.Token()

	ctrl := page.New(page.WithEmpty[[]discovery.Company](page.NoCompanies))
	gen := ctrl.Begin()

	var (
		companies []discovery.Company
		calls     []discovery.Call
		callsErr  error
	)
	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		companies, err = s.gw.CompaniesByIndustry(gCtx, token, code)
		return err
	})
	g.Go(func() error {
		calls, callsErr = s.gw.CallsByIndustry(gCtx, token, code)
		return nil
	})
	err := g.Wait()
	ctrl.Resolve(gen, companies, err)

	p := industryPage{
		Code:      strings.ToUpper(code),
		Slug:      strings.ToLower(code),
		Label:     discovery.IndustryLabel(code),
		View:      page.ParseSectorView(r.URL.Query().Get("view")),
		Companies: ctrl.Result(),
	}
	if p.Companies.State == page.Ready {
		if callsErr != nil {
			p.CallsMessage = backend.UserMessage(callsErr)
			calls = nil
		}
		p.Analytics = discovery.AnalyzeSector(p.Companies.Data, calls)
	}
	s.pages.render(w, statusFor(p.Companies.State), "industry", s.view(sess, p.Label, true, p))
}

func (s *server) handleIndustryCalls(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	res := page.Fetch(r.Context(),
		func(ctx context.Context) ([]discovery.Call, error) {
			return s.gw.CallsByIndustry(ctx, sess.Token(), code)
		},
		page.WithEmpty[[]discovery.Call](page.NoCalls),
	)
	p := industryCallsPage{Slug: strings.ToLower(code), Label: discovery.IndustryLabel(code), Calls: res}
	s.pages.render(w, statusFor(res.State), "industry_calls", s.view(sess, p.Label, true, p))
}

func (s *server) handleCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res := page.Fetch(r.Context(),
		func(ctx context.Context) ([]discovery.Call, error) {
			return s.gw.CallsByCompany(ctx, sess.Token(), id)
		},
		page.WithEmpty[[]discovery.Call](page.NoCalls),
	)
	p := companyPage{ID: id, Calls: res}
	if res.State == page.Ready && len(res.Data) > 0 {
		p.Name = res.Data[0].CompanyName
	}
	title := p.Name
	if title == "" {
		title = "Company Details"
	}
	s.pages.render(w, statusFor(res.State), "company", s.view(sess, title, true, p))
}

// handleCall renders every tab panel at once; ?tab only picks the one shown
// first, and switching happens in the browser without another request.
func (s *server) handleCall(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res := page.Fetch(r.Context(),
		func(ctx context.Context) (*discovery.Call, error) {
			return s.gw.GetCall(ctx, sess.Token(), id)
		},
		page.WithEmpty[*discovery.Call](page.CallNotFound),
	)
	p := callPage{
		Call:   res,
		Active: page.ParseCallTab(r.URL.Query().Get("tab")),
		Tabs:   page.CallTabs(),
	}
	title := "Call Details"
	status := statusFor(res.State)
	switch res.State {
	case page.Ready:
		title = res.Data.CompanyName
	case page.Empty:
		status = http.StatusNotFound
	}
	s.pages.render(w, status, "call", s.view(sess, title, true, p))
}

func (s *server) handleCalls(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	res := page.Fetch(r.Context(),
		func(ctx context.Context) ([]discovery.Call, error) {
			return s.gw.Calls(ctx, sess.Token())
		},
		page.WithEmpty[[]discovery.Call](page.NoCalls),
	)
	s.pages.render(w, statusFor(res.State), "calls", s.view(sess, "All Calls", true, res))
}

func (s *server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	res := page.Fetch(r.Context(),
		func(ctx context.Context) (*discovery.Profile, error) {
			return s.gw.Profile(ctx, sess.Token())
		},
		page.WithEmpty[*discovery.Profile](page.NoProfile),
	)
	s.pages.render(w, statusFor(res.State), "profile", s.view(sess, "Profile", true, res))
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httpError(w, http.StatusNotFound, "not_found", "no such endpoint: %s", r.URL.Path)
		return
	}
	sess := s.sessions.For(w, r)
	s.pages.render(w, http.StatusNotFound, "notfound", s.view(sess, "Not Found", true, nil))
}

// handleSessionInfo exposes the client-readable user record, the same data
// a page script would read from storage.
func (s *server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.For(w, r)
	u, ok := sess.Get()
	if !ok || !sess.Authenticated() {
		writeJSON(w, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, map[string]any{
		"authenticated": true,
		"user":          u,
		"initials":      session.Initials(u.Name),
	})
}
