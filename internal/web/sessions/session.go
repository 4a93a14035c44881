package sessions

import (
	"encoding/gob"

	"github.com/gorilla/sessions"
	"github.com/mocknhire/mocknhire/internal/notify"
)

func init() {
	// Notifications travel through the cookie session, which encodes
	// values with gob.
	gob.Register(notify.Notification{})
}

// Session wraps a cookie session. It carries the notifications that
// need to survive a redirect before they are shown.
type Session struct {
	base      *sessions.Session
	needsSave bool
}

func (s *Session) NeedsSave() bool {
	return s.needsSave
}

// AddNotification queues a notification to be shown on the next
// rendered page.
func (s *Session) AddNotification(n notify.Notification) {
	s.needsSave = true
	s.base.AddFlash(n)
}

// Notifications returns and consumes the queued notifications.
func (s *Session) Notifications() []notify.Notification {
	flashes := s.base.Flashes()
	if len(flashes) > 0 {
		s.needsSave = true
	}

	ns := make([]notify.Notification, 0, len(flashes))
	for _, f := range flashes {
		if n, ok := f.(notify.Notification); ok {
			ns = append(ns, n)
		}
	}
	return ns
}
