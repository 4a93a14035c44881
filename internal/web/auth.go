package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/mocknhire/mocknhire/internal/auth"
	"github.com/mocknhire/mocknhire/internal/errorz"
)

// handleAuthSubmit processes the sign-in/sign-up form. Which variant
// runs is decided by the mode field, keeping validation and submission
// unified instead of two divergent code paths.
func (s *Server) handleAuthSubmit(w http.ResponseWriter, r *http.Request) {
	var in auth.Input
	if err := s.decodeForm(r, &in); err != nil {
		s.handleError(w, r, err)
		return
	}

	var target string
	var err error
	switch in.Mode {
	case auth.ModeSignUp:
		target, err = s.deps.Controller.SignUp(r.Context(), in)
	default:
		target, err = s.deps.Controller.SignIn(r.Context(), in)
	}

	if err != nil {
		var invalidInput errorz.InvalidInput
		switch {
		case errors.As(err, &invalidInput):
			// Field errors, no network call was made. Re-render the
			// form with the entered values.
			rerr := s.writeViewErrs(w, r, "login", nil, invalidInput.Fields())
			if rerr != nil {
				s.handleError(w, r, rerr)
			}
		case errors.Is(err, auth.ErrAttemptInProgress):
			// The submit controls are disabled while an attempt is
			// outstanding, a racing submit is simply sent back.
			http.Redirect(w, r, LoginRoute, http.StatusFound)
		case errors.Is(err, auth.ErrAuthenticationFailed):
			// The controller already emitted the notification.
			rerr := s.writeView(w, r, "login", nil)
			if rerr != nil {
				s.handleError(w, r, rerr)
			}
		default:
			s.handleError(w, r, err)
		}
		return
	}

	if err := s.flashNotifications(w, r); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// handleOAuthStart sends the browser to the identity provider.
func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := s.deps.Controller.SignInWithOAuth(r.Context())
	if err != nil {
		if err := s.flashNotifications(w, r); err != nil {
			s.handleError(w, r, err)
			return
		}
		http.Redirect(w, r, LoginRoute, http.StatusFound)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// handleOAuthCallback completes a provider sign-in: it commits the
// identity the provider established and redirects like a password
// sign-in would.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	target, err := s.deps.Controller.CompleteOAuth(r.Context())
	if err != nil {
		target = LoginRoute
	}

	if err := s.flashNotifications(w, r); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// handleSignOut ends the session. The local identity is cleared even
// when the remote call fails, so this always lands on the target the
// controller returns.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	target, err := s.deps.Controller.SignOut(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.flashNotifications(w, r); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// decodeForm parses the request form into dst.
func (s *Server) decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	// Remove the CSRF token from the form, the decoder has no target
	// field for it.
	r.Form.Del(csrfTokenField)
	r.PostForm.Del(csrfTokenField)

	return decodeError(s.decoder.Decode(dst, r.PostForm))
}

// decodeError converts decoder errors to keyed invalid input errors.
func decodeError(err error) error {
	if err == nil {
		return nil
	}

	var multiErr schema.MultiError
	if errors.As(err, &multiErr) {
		var invalidInput errorz.InvalidInput
		for key, e := range multiErr {
			invalidInput = append(invalidInput, errorz.Keyed{
				Key: key,
				Err: e,
			})
		}

		return invalidInput
	}

	return err
}
