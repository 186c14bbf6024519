// Package web serves the dashboard: the route guard, the page and login
// handlers, and the embedded templates they render.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/discovery"
	"github.com/kalambet/calldash/internal/session"
)

// Gateway is the subset of the backend client the pages use.
type Gateway interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.LoginResult, error)
	Profile(ctx context.Context, token string) (*discovery.Profile, error)
	Industries(ctx context.Context, token string) ([]discovery.Industry, error)
	CompaniesByIndustry(ctx context.Context, token, code string) ([]discovery.Company, error)
	CallsByCompany(ctx context.Context, token, companyID string) ([]discovery.Call, error)
	CallsByIndustry(ctx context.Context, token, code string) ([]discovery.Call, error)
	GetCall(ctx context.Context, token, callID string) (*discovery.Call, error)
	Calls(ctx context.Context, token string) ([]discovery.Call, error)
}

var _ Gateway = (*backend.Client)(nil)

type Deps struct {
	Gateway  Gateway
	Sessions *session.Manager
}

type server struct {
	gw       Gateway
	sessions *session.Manager
	pages    *renderer
}

// NewHandler returns the dashboard's root handler.
func NewHandler(deps Deps) http.Handler {
	s := &server{
		gw:       deps.Gateway,
		sessions: deps.Sessions,
		pages:    newRenderer(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Guard)

	r.Get("/health", handleHealth)
	r.Handle("/static/*", staticHandler())
	r.Get("/favicon.ico", handleFavicon)
	r.Get("/api/session", s.handleSessionInfo)

	r.Get(LoginPath, s.handleLoginForm)
	r.Post(LoginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Get(LandingPath, s.handleIndustries)
	r.Get("/industry/{code}", s.handleIndustry)
	r.Get("/sector/{code}", s.handleIndustry)
	r.Get("/industry/{code}/calls", s.handleIndustryCalls)
	r.Get("/company/{id}", s.handleCompany)
	r.Get("/call/{id}", s.handleCall)
	r.Get("/calls", s.handleCalls)
	r.Get("/profile", s.handleProfile)

	r.NotFound(s.handleNotFound)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
