// Package web serves the application pages and wires user interaction
// to the auth controller and session store.
package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/schema"
	"github.com/mocknhire/mocknhire/internal/auth"
	"github.com/mocknhire/mocknhire/internal/errorz"
	"github.com/mocknhire/mocknhire/internal/krypto"
	"github.com/mocknhire/mocknhire/internal/notify"
	"github.com/mocknhire/mocknhire/internal/session"
	"github.com/mocknhire/mocknhire/internal/web/sessions"
)

const (
	csrfTokenField      = "csrf_token"
	csrfTokenCookieName = "mh-csrf"
)

// ViewRenderer renders named views with the given data.
type ViewRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger       *slog.Logger
	ViewRenderer ViewRenderer
	Controller   *auth.Controller
	Store        *session.Store
	Notifier     *notify.Center
	SessionStore *sessions.Store
	DistFS       http.FileSystem
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	CSRFKey      krypto.Key
	SecureCookie bool
}

type Server struct {
	deps    *ServerDeps
	mux     *http.ServeMux
	decoder *schema.Decoder
	handler http.Handler
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		decoder: schema.NewDecoder(),
	}

	// The role radio buttons only exist in sign-up mode, the decoder
	// should not fail on fields a mode leaves out.
	s.decoder.IgnoreUnknownKeys(true)

	// Public pages. The guard redirects signed-in users away from
	// these, see guard.go.
	s.mux.Handle("GET /{$}", s.viewHandler("landing"))
	s.mux.Handle("GET /auth/login", s.viewHandler("login"))

	// Authentication actions.
	s.mux.Handle("POST /auth/login", http.HandlerFunc(s.handleAuthSubmit))
	s.mux.Handle("POST /auth/oauth", http.HandlerFunc(s.handleOAuthStart))
	s.mux.Handle("GET /auth/callback", http.HandlerFunc(s.handleOAuthCallback))
	s.mux.Handle("POST /auth/logout", http.HandlerFunc(s.handleSignOut))

	// Role dashboards and role-scoped pages.
	s.mux.Handle("GET /dashboard/recruiter", s.viewHandler("dashboard-recruiter"))
	s.mux.Handle("GET /dashboard/student", s.viewHandler("dashboard-student"))
	s.mux.Handle("GET /history", s.viewHandler("history"))
	s.mux.Handle("GET /settings", s.viewHandler("settings"))
	s.mux.Handle("POST /settings/theme", http.HandlerFunc(s.handleTheme))

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(deps.DistFS)))

	// Wrap the mux with the global middlewares.
	csrfMW := csrf.Protect(
		cfg.CSRFKey.SecretValue(),
		csrf.CookieName(csrfTokenCookieName),
		csrf.FieldName(csrfTokenField),
		csrf.Secure(cfg.SecureCookie),
	)

	middlewares := []func(http.Handler) http.Handler{
		csrfMW,
		s.sessionMiddleware,
		s.guardMiddleware,
	}
	s.handler = s.mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.handler = middlewares[i](s.handler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// guardMiddleware applies the navigation guard to every request. The
// decision is recomputed per request from the current identity, it is
// never cached.
func (s *Server) guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := s.deps.Store.Snapshot().Identity

		if d := Decide(r.URL.Path, ident); !d.Allowed {
			http.Redirect(w, r, d.RedirectTo, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) viewHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.writeView(w, r, name, nil)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
	})
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errorz.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
