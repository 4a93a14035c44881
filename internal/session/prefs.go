package session

import "errors"

var (
	// ErrInvalidTheme indicates a theme is not one of the known themes.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidAccent indicates an accent is not part of the palette.
	ErrInvalidAccent = errors.New("invalid accent")
)

// Theme is the light/dark mode preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme parses the given string into one of the known themes.
func ParseTheme(raw string) (Theme, error) {
	switch Theme(raw) {
	case ThemeLight, ThemeDark:
		return Theme(raw), nil
	}
	return Theme(""), ErrInvalidTheme
}

func (t *Theme) UnmarshalText(text []byte) error {
	theme, err := ParseTheme(string(text))
	if err != nil {
		return err
	}

	*t = theme

	return nil
}

// Accent is the accent color preference. The views translate it to a
// data attribute on the page root, the palette below matches the CSS
// tokens shipped in the assets.
type Accent string

const (
	AccentBlue    Accent = "blue"
	AccentViolet  Accent = "violet"
	AccentEmerald Accent = "emerald"
	AccentAmber   Accent = "amber"
	AccentRose    Accent = "rose"
)

// ParseAccent parses the given string into one of the palette accents.
func ParseAccent(raw string) (Accent, error) {
	switch Accent(raw) {
	case AccentBlue, AccentViolet, AccentEmerald, AccentAmber, AccentRose:
		return Accent(raw), nil
	}
	return Accent(""), ErrInvalidAccent
}

func (a *Accent) UnmarshalText(text []byte) error {
	accent, err := ParseAccent(string(text))
	if err != nil {
		return err
	}

	*a = accent

	return nil
}

// Prefs are the UI cosmetic preferences. They persist across restarts,
// unlike the identity.
type Prefs struct {
	Theme  Theme
	Accent Accent
}

// DefaultPrefs returns the preferences used before the user ever
// touched the theme controls.
func DefaultPrefs() Prefs {
	return Prefs{
		Theme:  ThemeDark,
		Accent: AccentBlue,
	}
}
