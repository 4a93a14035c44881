package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gsessions "github.com/gorilla/sessions"
	"github.com/mocknhire/mocknhire/internal/notify"
	"github.com/mocknhire/mocknhire/internal/web/sessions"
)

func storeForTest(t *testing.T) *sessions.Store {
	t.Helper()

	return sessions.NewStore(gsessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")))
}

func TestSession_Notifications(t *testing.T) {
	t.Run("ok, notifications survive a redirect exactly once", func(t *testing.T) {
		store := storeForTest(t)

		// First request queues a notification before redirecting.
		r1 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		w1 := httptest.NewRecorder()

		sess, err := store.Get(r1)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		want := notify.Notification{Level: notify.LevelSuccess, Message: "Welcome back!"}
		sess.AddNotification(want)

		if !sess.NeedsSave() {
			t.Error("expected session to need saving after queueing")
		}

		if err := store.Save(r1, w1, sess); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		cookies := w1.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("expected a session cookie to be set")
		}

		// Second request, after the redirect, shows and consumes it.
		r2 := httptest.NewRequest(http.MethodGet, "/dashboard/recruiter", nil)
		for _, c := range cookies {
			r2.AddCookie(c)
		}
		w2 := httptest.NewRecorder()

		sess2, err := store.Get(r2)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		got := sess2.Notifications()
		if len(got) != 1 || got[0] != want {
			t.Fatalf("got notifications %v, want [%v]", got, want)
		}

		// Consuming marks the session dirty so the cleared state is
		// written back.
		if !sess2.NeedsSave() {
			t.Error("expected session to need saving after consuming")
		}

		if err := store.Save(r2, w2, sess2); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		// Third request must not see the notification again.
		r3 := httptest.NewRequest(http.MethodGet, "/dashboard/recruiter", nil)
		for _, c := range w2.Result().Cookies() {
			r3.AddCookie(c)
		}

		sess3, err := store.Get(r3)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if got := sess3.Notifications(); len(got) != 0 {
			t.Errorf("got notifications %v, want none", got)
		}
	})

	t.Run("ok, fresh session has no notifications", func(t *testing.T) {
		store := storeForTest(t)

		r := httptest.NewRequest(http.MethodGet, "/", nil)

		sess, err := store.Get(r)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if got := sess.Notifications(); len(got) != 0 {
			t.Errorf("got notifications %v, want none", got)
		}
		if sess.NeedsSave() {
			t.Error("expected fresh session to not need saving")
		}
	})
}
