package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mocknhire/mocknhire/internal/web/sessions"
)

// sessionMiddleware loads the cookie session and injects it in the
// request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.SessionStore.Get(r)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		ctx := ctxWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey string

const sessionCtxKey ctxKey = "_session"

func ctxWithSession(ctx context.Context, sess *sessions.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func sessionFromCtx(ctx context.Context) (*sessions.Session, error) {
	sess, ok := ctx.Value(sessionCtxKey).(*sessions.Session)
	if !ok {
		return nil, fmt.Errorf("could not get session from context")
	}

	return sess, nil
}

// flashNotifications moves pending notifications into the cookie
// session so they survive the redirect that follows.
func (s *Server) flashNotifications(w http.ResponseWriter, r *http.Request) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	for _, n := range s.deps.Notifier.Drain() {
		sess.AddNotification(n)
	}

	if sess.NeedsSave() {
		return s.deps.SessionStore.Save(r, w, sess)
	}

	return nil
}
