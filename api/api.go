// Package api exposes taskboard over HTTP.
//
// Tasks are addressed by their stable external UUID, never by the internal
// TypeID, so internal identifiers stay out of URLs. All task, board, and
// report routes require a Bearer JWT issued by the auth service.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/rabilrbl/taskboard/auth"
	"github.com/rabilrbl/taskboard/engine"
	"github.com/rabilrbl/taskboard/report"
	"github.com/rabilrbl/taskboard/store"
)

// Option configures the API.
type Option func(*API)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithRateLimit throttles the whole API to rps requests per second with
// the given burst. Zero rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *API) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithBaseURL sets the externally visible base URL used in outbound links,
// e.g. "https://tasks.example.com". When unset, links are derived from the
// incoming request's scheme and host.
func WithBaseURL(u string) Option {
	return func(a *API) { a.baseURL = strings.TrimRight(u, "/") }
}

// API carries the handler dependencies.
type API struct {
	engine  *engine.Engine
	store   store.Store
	auth    *auth.Service
	reports *report.Service
	logger  *slog.Logger
	limiter *rate.Limiter
	baseURL string
}

// requestBaseURL returns the configured base URL, or one derived from the
// request. Plain-HTTP deployments get http links; a TLS-terminating proxy
// is honored via X-Forwarded-Proto.
func (a *API) requestBaseURL(r *http.Request) string {
	if a.baseURL != "" {
		return a.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// New creates the API.
func New(eng *engine.Engine, st store.Store, authSvc *auth.Service, reports *report.Service, opts ...Option) *API {
	a := &API{
		engine:  eng,
		store:   st,
		auth:    authSvc,
		reports: reports,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router builds the route table.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(a.recoverPanics, a.logRequests, a.throttle)

	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)

	// Public auth routes.
	r.HandleFunc("/auth/signup", a.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/magic-link", a.handleMagicLink).Methods(http.MethodGet)

	// Everything else requires a valid token.
	s := r.PathPrefix("/").Subrouter()
	s.Use(a.requireAuth)

	s.HandleFunc("/tasks", a.handleListTasks).Methods(http.MethodGet)
	s.HandleFunc("/tasks", a.handleCreateTask).Methods(http.MethodPost)
	s.HandleFunc("/tasks/{externalID}", a.handleGetTask).Methods(http.MethodGet)
	s.HandleFunc("/tasks/{externalID}", a.handleUpdateTask).Methods(http.MethodPatch)
	s.HandleFunc("/tasks/{externalID}", a.handleDeleteTask).Methods(http.MethodDelete)
	s.HandleFunc("/tasks/{externalID}/complete", a.handleCompleteTask).Methods(http.MethodPost)
	s.HandleFunc("/tasks/{externalID}/history", a.handleTaskHistory).Methods(http.MethodGet)

	s.HandleFunc("/boards", a.handleListBoards).Methods(http.MethodGet)
	s.HandleFunc("/boards", a.handleCreateBoard).Methods(http.MethodPost)
	s.HandleFunc("/boards/{boardID}", a.handleGetBoard).Methods(http.MethodGet)
	s.HandleFunc("/boards/{boardID}", a.handleUpdateBoard).Methods(http.MethodPatch)
	s.HandleFunc("/boards/{boardID}", a.handleDeleteBoard).Methods(http.MethodDelete)
	s.HandleFunc("/boards/{boardID}/labels", a.handleListStatusLabels).Methods(http.MethodGet)
	s.HandleFunc("/boards/{boardID}/labels", a.handleCreateStatusLabel).Methods(http.MethodPost)
	s.HandleFunc("/boards/{boardID}/labels/{labelID}", a.handleDeleteStatusLabel).Methods(http.MethodDelete)

	s.HandleFunc("/report", a.handleGetReport).Methods(http.MethodGet)
	s.HandleFunc("/report", a.handlePutReport).Methods(http.MethodPut)

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
