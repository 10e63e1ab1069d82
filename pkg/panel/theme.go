package panel

import (
	"context"
	"net/http"
	"strings"
)

// Theme is the colour scheme static pages render with.
type Theme struct {
	Name       string
	Background string
	Foreground string
	Primary    string
	Muted      string
}

// Built-in themes.
var (
	ThemeLight = Theme{
		Name:       "light",
		Background: "#ffffff",
		Foreground: "#1f2933",
		Primary:    "#0f766e",
		Muted:      "#7b8794",
	}
	ThemeDark = Theme{
		Name:       "dark",
		Background: "#111827",
		Foreground: "#e5e7eb",
		Primary:    "#2dd4bf",
		Muted:      "#6b7280",
	}
)

// ThemeByName returns the built-in theme called name (case-insensitive).
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(name) {
	case "", ThemeLight.Name:
		return ThemeLight, true
	case ThemeDark.Name:
		return ThemeDark, true
	}
	return Theme{}, false
}

type themeKey struct{}

// WithTheme returns middleware that makes theme available to handlers
// through ThemeFrom. The request is otherwise passed through untouched.
func WithTheme(theme Theme) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), themeKey{}, theme)))
		})
	}
}

// ThemeFrom returns the theme stored by WithTheme, or ThemeLight.
func ThemeFrom(ctx context.Context) Theme {
	if t, ok := ctx.Value(themeKey{}).(Theme); ok {
		return t
	}
	return ThemeLight
}
