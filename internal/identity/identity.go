package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRole indicates a role is not one of the known roles.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidCredentials indicates the identity service rejected the
	// provided credentials. Deliberately does not distinguish between a
	// wrong password and an unknown account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIncompleteData indicates an otherwise successful response was
	// missing the user or profile record.
	ErrIncompleteData = errors.New("incomplete auth data")
	// ErrNoSession indicates the identity service has no durable session
	// to restore.
	ErrNoSession = errors.New("no session")
)

// Role determines which dashboard and which role-scoped routes a user
// can access.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleStudent   Role = "student"
)

// ParseRole parses the given string into one of the known roles.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleRecruiter, RoleStudent:
		return Role(raw), nil
	}
	return Role(""), ErrInvalidRole
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = role

	return nil
}

// Identity is the authenticated user as the rest of the application
// sees it: id, email, display name and role. It is created only from a
// successful identity service response and owned exclusively by the
// session store.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  Role
}

// User is the account record returned by the identity service.
type User struct {
	ID    uuid.UUID
	Email string
}

// Profile is the profile record returned by the identity service
// alongside the user.
type Profile struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   Role
}

// AuthData is the payload of a successful sign-in, sign-up or session
// fetch. Both records must be present for the data to be usable, a
// missing profile is not a success with empty fields.
type AuthData struct {
	User    *User
	Profile *Profile
}

// Identity converts the auth data to an Identity. It returns
// ErrIncompleteData when the user or profile record is missing.
func (d AuthData) Identity() (Identity, error) {
	if d.User == nil || d.Profile == nil {
		return Identity{}, ErrIncompleteData
	}

	return Identity{
		ID:    d.Profile.UserID,
		Email: d.Profile.Email,
		Name:  d.Profile.Name,
		Role:  d.Profile.Role,
	}, nil
}

// Service is the external identity service this application
// authenticates against. It verifies credentials, creates accounts and
// owns the durable session, none of that happens locally.
type Service interface {
	// SignIn verifies the credentials and establishes a session.
	SignIn(ctx context.Context, email, password string) (AuthData, error)

	// SignUp creates an account with the chosen role and establishes a
	// session.
	SignUp(ctx context.Context, email, password, name string, role Role) (AuthData, error)

	// SignInWithOAuth returns the URL to redirect the browser to in
	// order to start a provider based sign-in. The session is only
	// established once the provider redirects back.
	SignInWithOAuth(ctx context.Context) (string, error)

	// SignOut invalidates the remote session.
	SignOut(ctx context.Context) error

	// CurrentSession returns the auth data for the durable session, or
	// ErrNoSession when there is none.
	CurrentSession(ctx context.Context) (AuthData, error)
}
