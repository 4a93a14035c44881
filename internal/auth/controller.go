// Package auth drives authentication attempts from validated input
// through the identity service to a committed session store update.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mocknhire/mocknhire/internal/identity"
	"github.com/mocknhire/mocknhire/internal/session"
)

var (
	// ErrAttemptInProgress indicates another attempt holds the submit
	// latch. Callers should disable submission controls rather than
	// race a second identity service call.
	ErrAttemptInProgress = errors.New("authentication attempt already in progress")
	// ErrAuthenticationFailed indicates an attempt failed. The user
	// facing notification has already been emitted by the controller,
	// the error exists so callers can return the form to idle.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Notifier surfaces user-visible notifications. The controller emits
// exactly one notification per attempt.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Notification texts. One generic failure message per operation type,
// deliberately not distinguishing a wrong password from an unknown
// account.
const (
	MsgWelcomeBack        = "Welcome back!"
	MsgAccountCreated     = "Account created successfully!"
	MsgSignedOut          = "Signed out"
	MsgInvalidCredentials = "Invalid email or password"
	MsgSignUpFailed       = "Failed to create account"
	MsgGenericFailure     = "Something went wrong"
)

// Routes the controller navigates to.
const (
	LandingRoute = "/"
)

// DashboardRoute returns the dashboard route for the given role.
func DashboardRoute(role identity.Role) string {
	return "/dashboard/" + string(role)
}

// Controller sequences authentication attempts. Per attempt it moves
// Idle -> Submitting -> Succeeded/Failed and always returns to Idle,
// no code path may leave the latch held.
type Controller struct {
	svc      identity.Service
	store    *session.Store
	notifier Notifier
	logger   *slog.Logger

	submitting atomic.Bool

	// RedirectDelay is how long a successful sign-up waits before
	// navigation, so the success notification is visible. Exposed for
	// testing purposes.
	RedirectDelay time.Duration
}

// NewController creates a controller writing committed identities to
// the given store.
func NewController(svc identity.Service, store *session.Store, notifier Notifier, logger *slog.Logger) *Controller {
	return &Controller{
		svc:           svc,
		store:         store,
		notifier:      notifier,
		logger:        logger,
		RedirectDelay: time.Second,
	}
}

// Submitting reports whether an attempt is outstanding. The UI uses it
// to disable submission controls.
func (c *Controller) Submitting() bool {
	return c.submitting.Load()
}

// SignIn runs a password sign-in attempt. On success the identity is
// committed and the dashboard route for its role is returned. On
// failure the returned error is either an errorz.InvalidInput (no
// network call was made) or ErrAuthenticationFailed (a notification
// has been emitted).
func (c *Controller) SignIn(ctx context.Context, in Input) (string, error) {
	in.Mode = ModeSignIn
	if res := Validate(in); !res.Valid() {
		return "", res.Err()
	}

	release, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	data, err := c.svc.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		c.fail("sign in", err, MsgInvalidCredentials)
		return "", ErrAuthenticationFailed
	}

	ident, err := data.Identity()
	if err != nil {
		// A success response without a profile is a failure, not a
		// sign-in with empty fields.
		c.fail("sign in", err, MsgInvalidCredentials)
		return "", ErrAuthenticationFailed
	}

	c.store.SetIdentity(&ident)
	c.notifier.Success(MsgWelcomeBack)

	return DashboardRoute(ident.Role), nil
}

// SignUp runs an account creation attempt with the chosen role. The
// navigation target is returned after RedirectDelay so the success
// notification is visible before the caller navigates.
func (c *Controller) SignUp(ctx context.Context, in Input) (string, error) {
	in.Mode = ModeSignUp
	if in.Role == "" {
		in.Role = identity.RoleRecruiter
	}
	if res := Validate(in); !res.Valid() {
		return "", res.Err()
	}

	release, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	data, err := c.svc.SignUp(ctx, in.Email, in.Password, in.Name, in.Role)
	if err != nil {
		c.fail("sign up", err, MsgSignUpFailed)
		return "", ErrAuthenticationFailed
	}

	ident, err := data.Identity()
	if err != nil {
		c.fail("sign up", err, MsgSignUpFailed)
		return "", ErrAuthenticationFailed
	}

	c.store.SetIdentity(&ident)
	c.notifier.Success(MsgAccountCreated)

	select {
	case <-time.After(c.RedirectDelay):
	case <-ctx.Done():
	}

	return DashboardRoute(ident.Role), nil
}

// SignInWithOAuth initiates a redirect based sign-in and returns the
// URL to send the browser to. It does not commit an identity, that
// happens in CompleteOAuth once the provider redirects back. Its only
// local responsibility is surfacing initiation failure.
func (c *Controller) SignInWithOAuth(ctx context.Context) (string, error) {
	release, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	redirectURL, err := c.svc.SignInWithOAuth(ctx)
	if err != nil {
		c.fail("oauth initiation", err, MsgGenericFailure)
		return "", ErrAuthenticationFailed
	}

	return redirectURL, nil
}

// CompleteOAuth is the redirect-callback entry point. It fetches the
// session the provider established and performs the same commit then
// redirect sequence as SignIn.
func (c *Controller) CompleteOAuth(ctx context.Context) (string, error) {
	release, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	data, err := c.svc.CurrentSession(ctx)
	if err != nil {
		c.fail("oauth callback", err, MsgInvalidCredentials)
		return "", ErrAuthenticationFailed
	}

	ident, err := data.Identity()
	if err != nil {
		c.fail("oauth callback", err, MsgInvalidCredentials)
		return "", ErrAuthenticationFailed
	}

	c.store.SetIdentity(&ident)
	c.notifier.Success(MsgWelcomeBack)

	return DashboardRoute(ident.Role), nil
}

// SignOut ends the session. The local identity is always cleared and
// the landing route returned, local session invalidation must never
// depend on a reachable network.
func (c *Controller) SignOut(ctx context.Context) (string, error) {
	release, err := c.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	err = c.svc.SignOut(ctx)

	c.store.SetIdentity(nil)

	if err != nil {
		// Swallowed for local state, still reported.
		c.logger.Error("remote sign out failed", "error", err)
		c.notifier.Error(MsgGenericFailure)
	} else {
		c.notifier.Success(MsgSignedOut)
	}

	return LandingRoute, nil
}

// Restore re-hydrates the identity from the service's durable session
// at startup. No session is not an error and emits no notification.
func (c *Controller) Restore(ctx context.Context) error {
	data, err := c.svc.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			return nil
		}
		return err
	}

	ident, err := data.Identity()
	if err != nil {
		return err
	}

	c.store.SetIdentity(&ident)

	return nil
}

// acquire takes the submit latch. The returned release func must be
// deferred immediately so no code path can leave an attempt stuck in
// Submitting.
func (c *Controller) acquire() (func(), error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, ErrAttemptInProgress
	}

	return func() {
		c.submitting.Store(false)
	}, nil
}

// fail logs the diagnostic detail and emits the single user facing
// failure notification for the attempt.
func (c *Controller) fail(op string, err error, msg string) {
	c.logger.Error("authentication attempt failed", "operation", op, "error", err)
	c.notifier.Error(msg)
}
