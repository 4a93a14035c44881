package web

import (
	"net/http"

	"github.com/mocknhire/mocknhire/internal/session"
)

type themeInput struct {
	Theme  session.Theme  `schema:"theme"`
	Accent session.Accent `schema:"accent"`
}

// handleTheme updates the theme and accent preference. The store
// persists them and every rendered page picks up the new tokens.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var in themeInput
	if err := s.decodeForm(r, &in); err != nil {
		s.handleError(w, r, err)
		return
	}

	if in.Theme != "" {
		s.deps.Store.SetTheme(r.Context(), in.Theme)
	}
	if in.Accent != "" {
		s.deps.Store.SetAccent(r.Context(), in.Accent)
	}

	http.Redirect(w, r, "/settings", http.StatusFound)
}
