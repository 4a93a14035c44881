// Package session holds the process-wide session state: who is signed
// in and how the UI is themed. The Store is the single source of truth,
// every other component reads from it or writes to it, never to each
// other directly.
package session

import (
	"context"
	"sync"

	"github.com/mocknhire/mocknhire/internal/identity"
)

// Saver persists preferences so they survive a restart.
type Saver interface {
	SavePrefs(ctx context.Context, p Prefs) error
}

// ErrFunc is a function that handles errors that occur outside a
// caller's control flow, such as a failed preference save.
type ErrFunc func(error)

// Snapshot is a consistent view of the store state. Identity is nil
// when nobody is signed in.
type Snapshot struct {
	Identity *identity.Identity
	Theme    Theme
	Accent   Accent
}

// Store holds the single authoritative identity and the theme/accent
// preference. All writes commit synchronously, subscribers are
// notified on the writing goroutine after the commit, so a subscriber
// that reads back always observes the write that triggered it.
type Store struct {
	mu       sync.Mutex
	ident    identity.Identity
	hasIdent bool
	prefs    Prefs
	subs     []func(Snapshot)

	saver      Saver
	errHandler ErrFunc
}

// NewStore creates a store with the given starting preferences. The
// identity starts absent until restored or established. Saver and
// errHandler may be nil.
func NewStore(prefs Prefs, saver Saver, errHandler ErrFunc) *Store {
	if errHandler == nil {
		errHandler = func(error) {}
	}

	return &Store{
		prefs:      prefs,
		saver:      saver,
		errHandler: errHandler,
	}
}

// Subscribe registers fn to be called synchronously after every
// committed write. Subscribers must not write back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Identity returns the current identity and whether one is present.
func (s *Store) Identity() (identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ident, s.hasIdent
}

// SetIdentity replaces the stored identity wholesale. Passing nil is
// the sign-out path and clears it.
func (s *Store) SetIdentity(ident *identity.Identity) {
	s.mu.Lock()

	if ident == nil {
		s.ident = identity.Identity{}
		s.hasIdent = false
	} else {
		s.ident = *ident
		s.hasIdent = true
	}

	s.notifyLocked()
}

// SetTheme updates the theme preference and persists it.
func (s *Store) SetTheme(ctx context.Context, theme Theme) {
	s.mu.Lock()
	s.prefs.Theme = theme
	s.persistLocked(ctx)
	s.notifyLocked()
}

// SetAccent updates the accent preference and persists it.
func (s *Store) SetAccent(ctx context.Context, accent Accent) {
	s.mu.Lock()
	s.prefs.Accent = accent
	s.persistLocked(ctx)
	s.notifyLocked()
}

// persistLocked saves the preferences best-effort. A failed save is
// reported to the error handler, the in-memory state stays committed.
func (s *Store) persistLocked(ctx context.Context) {
	if s.saver == nil {
		return
	}

	if err := s.saver.SavePrefs(ctx, s.prefs); err != nil {
		s.errHandler(err)
	}
}

// notifyLocked snapshots the state, releases the lock and invokes the
// subscribers. Must be called with the lock held.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Theme:  s.prefs.Theme,
		Accent: s.prefs.Accent,
	}

	if s.hasIdent {
		ident := s.ident
		snap.Identity = &ident
	}

	return snap
}
