package web

import (
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"
	"github.com/mocknhire/mocknhire/internal"
	"github.com/mocknhire/mocknhire/internal/identity"
	"github.com/mocknhire/mocknhire/internal/notify"
	"github.com/mocknhire/mocknhire/internal/session"
)

type viewData struct {
	Version       string
	CSRFToken     string
	IsLoggedIn    bool
	Identity      *identity.Identity
	Theme         session.Theme
	Accent        session.Accent
	Notifications []notify.Notification
	// Form and FieldErrors let the login view re-render a failed
	// submission with the entered values and per-field messages.
	Form        url.Values
	FieldErrors map[string]string
	Data        any
}

// writeView renders the named view with the store snapshot, any
// pending notifications and optional view specific data.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request, name string, data any) error {
	return s.writeViewErrs(w, r, name, data, nil)
}

func (s *Server) writeViewErrs(w http.ResponseWriter, r *http.Request, name string, data any, fieldErrs map[string]string) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	// Make query and form values available to the views, the login
	// view uses them for the mode toggle and to re-fill fields.
	if err := r.ParseForm(); err != nil {
		return err
	}

	snap := s.deps.Store.Snapshot()

	// Notifications flashed before a redirect come out of the cookie
	// session, ones for this same request straight from the center.
	ns := sess.Notifications()
	ns = append(ns, s.deps.Notifier.Drain()...)

	vd := &viewData{
		Version:       internal.BuildRevision,
		CSRFToken:     csrf.Token(r),
		IsLoggedIn:    snap.Identity != nil,
		Identity:      snap.Identity,
		Theme:         snap.Theme,
		Accent:        snap.Accent,
		Notifications: ns,
		Form:          r.Form,
		FieldErrors:   fieldErrs,
		Data:          data,
	}

	if sess.NeedsSave() {
		if err := s.deps.SessionStore.Save(r, w, sess); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.deps.ViewRenderer.Render(w, name, vd)
}
