package auth

import (
	"errors"
	"regexp"
	"sort"

	"github.com/mocknhire/mocknhire/internal/errorz"
	"github.com/mocknhire/mocknhire/internal/identity"
)

// Mode selects between the sign-in and sign-up variants of the form.
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// ErrInvalidMode indicates a mode is not one of the known form modes.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode parses the given string into one of the known form modes.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeSignIn, ModeSignUp:
		return Mode(raw), nil
	}
	return Mode(""), ErrInvalidMode
}

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = mode

	return nil
}

// Input is the transient form input for a single authentication
// attempt. It is discarded after the attempt resolves and never
// persisted.
type Input struct {
	Mode            Mode          `schema:"mode"`
	Email           string        `schema:"email"`
	Password        string        `schema:"password"`
	Name            string        `schema:"name"`
	ConfirmPassword string        `schema:"confirmPassword"`
	Role            identity.Role `schema:"role"`
}

// Field names used as keys in validation results. They match the input
// names on the form.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldName            = "name"
	FieldConfirmPassword = "confirmPassword"
)

// Messages shown next to the fields when validation fails.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgNameRequired     = "Name is required"
	MsgPasswordMismatch = "Passwords don't match"
)

const minPasswordLen = 6

// emailShape is a pragmatic local@domain.tld check. Exhaustive email
// grammar validation is the identity service's job.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result maps field names to user-facing error messages. An empty
// result means the input is valid.
type Result map[string]string

// Valid reports whether the input passed all checks.
func (r Result) Valid() bool {
	return len(r) == 0
}

// Err converts the result to an errorz.InvalidInput error, or nil when
// the result is valid. Errors are keyed by field name in a stable
// order.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}

	fields := make([]string, 0, len(r))
	for field := range r {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var invalid errorz.InvalidInput
	for _, field := range fields {
		invalid = append(invalid, errorz.Keyed{
			Key: field,
			Err: errors.New(r[field]),
		})
	}

	return invalid
}

// Validate checks the input before it is allowed anywhere near the
// identity service. All rules run independently so every applicable
// error surfaces in one pass. Validate is pure: no network, no store
// access, no side effects.
func Validate(in Input) Result {
	result := make(Result)

	switch {
	case in.Email == "":
		result[FieldEmail] = MsgEmailRequired
	case !emailShape.MatchString(in.Email):
		result[FieldEmail] = MsgEmailInvalid
	}

	switch {
	case in.Password == "":
		result[FieldPassword] = MsgPasswordRequired
	case len(in.Password) < minPasswordLen:
		result[FieldPassword] = MsgPasswordTooShort
	}

	if in.Mode == ModeSignUp {
		if in.Name == "" {
			result[FieldName] = MsgNameRequired
		}
		if in.Password != in.ConfirmPassword {
			result[FieldConfirmPassword] = MsgPasswordMismatch
		}
	}

	return result
}
