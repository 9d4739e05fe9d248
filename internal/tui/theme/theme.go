// Package theme holds the colour palettes shared by the editor panels.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a named palette in the Catppuccin naming scheme.
type Theme struct {
	Name string

	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Surface2 lipgloss.Color
	Overlay  lipgloss.Color
	Subtext  lipgloss.Color
	Text     lipgloss.Color

	Primary  lipgloss.Color
	Lavender lipgloss.Color
	Blue     lipgloss.Color
	Green    lipgloss.Color
	Yellow   lipgloss.Color
	Peach    lipgloss.Color
	Red      lipgloss.Color
	Mauve    lipgloss.Color
	Pink     lipgloss.Color
	Teal     lipgloss.Color
}

var (
	// CatppuccinMocha is the default dark palette.
	CatppuccinMocha = Theme{
		Name:     "mocha",
		Base:     "#1e1e2e",
		Mantle:   "#181825",
		Surface0: "#313244",
		Surface1: "#45475a",
		Surface2: "#585b70",
		Overlay:  "#6c7086",
		Subtext:  "#a6adc8",
		Text:     "#cdd6f4",
		Primary:  "#89b4fa",
		Lavender: "#b4befe",
		Blue:     "#89b4fa",
		Green:    "#a6e3a1",
		Yellow:   "#f9e2af",
		Peach:    "#fab387",
		Red:      "#f38ba8",
		Mauve:    "#cba6f7",
		Pink:     "#f5c2e7",
		Teal:     "#94e2d5",
	}

	// CatppuccinLatte is the light palette.
	CatppuccinLatte = Theme{
		Name:     "latte",
		Base:     "#eff1f5",
		Mantle:   "#e6e9ef",
		Surface0: "#ccd0da",
		Surface1: "#bcc0cc",
		Surface2: "#acb0be",
		Overlay:  "#9ca0b0",
		Subtext:  "#6c6f85",
		Text:     "#4c4f69",
		Primary:  "#1e66f5",
		Lavender: "#7287fd",
		Blue:     "#1e66f5",
		Green:    "#40a02b",
		Yellow:   "#df8e1d",
		Peach:    "#fe640b",
		Red:      "#d20f39",
		Mauve:    "#8839ef",
		Pink:     "#ea76cb",
		Teal:     "#179299",
	}

	Nord = Theme{
		Name:     "nord",
		Base:     "#2e3440",
		Mantle:   "#272c36",
		Surface0: "#3b4252",
		Surface1: "#434c5e",
		Surface2: "#4c566a",
		Overlay:  "#616e88",
		Subtext:  "#d8dee9",
		Text:     "#eceff4",
		Primary:  "#88c0d0",
		Lavender: "#b48ead",
		Blue:     "#81a1c1",
		Green:    "#a3be8c",
		Yellow:   "#ebcb8b",
		Peach:    "#d08770",
		Red:      "#bf616a",
		Mauve:    "#b48ead",
		Pink:     "#b48ead",
		Teal:     "#8fbcbb",
	}

	// Plain carries no colours at all; used when NO_COLOR is set.
	Plain = Theme{Name: "plain"}
)

// Names lists the values accepted by Set.
var Names = []string{"auto", "mocha", "latte", "nord"}

var (
	mu      sync.RWMutex
	current *Theme
)

// NoColorEnabled reports whether colour output has been disabled through
// NO_COLOR or FRAMETRACK_NO_COLOR.
func NoColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FRAMETRACK_NO_COLOR")))
	return v != "" && v != "0" && v != "false"
}

// Current returns the active theme, resolving "auto" on first use.
func Current() Theme {
	mu.RLock()
	t := current
	mu.RUnlock()
	if t != nil {
		return *t
	}
	return Set("auto")
}

// Set selects a palette by name and returns it. Unknown names resolve like
// "auto". When colour is disabled the plain palette wins regardless of name.
func Set(name string) Theme {
	t := resolve(name)
	if NoColorEnabled() {
		lipgloss.SetColorProfile(termenv.Ascii)
		t = Plain
	}

	mu.Lock()
	current = &t
	mu.Unlock()
	return t
}

func resolve(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mocha", "dark":
		return CatppuccinMocha
	case "latte", "light":
		return CatppuccinLatte
	case "nord":
		return Nord
	}
	if termenv.HasDarkBackground() {
		return CatppuccinMocha
	}
	return CatppuccinLatte
}
