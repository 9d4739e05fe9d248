// Package overlay holds the time-bound text overlays placed on the video.
// The store is the single owner of overlay state; every mutation goes through
// it and is re-validated on the way in.
package overlay

import "math"

const (
	// MinDuration is the shortest duration an overlay may have, in seconds.
	MinDuration = 0.1
	// MinFontSize and MaxFontSize bound the overlay font size in pixels.
	MinFontSize = 12
	MaxFontSize = 72
)

// Position is the overlay anchor as a percentage of the frame, 0-100 on each axis.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Style holds the text rendering attributes.
type Style struct {
	FontSize   float64 `json:"font_size" yaml:"font_size"`
	Color      string  `json:"color" yaml:"color"`
	FontFamily string  `json:"font_family" yaml:"font_family"`
	FontWeight string  `json:"font_weight" yaml:"font_weight"`
}

// TextOverlay is a positioned text annotation shown during [StartTime, EndTime).
type TextOverlay struct {
	ID        string   `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	StartTime float64  `json:"start_time" yaml:"start_time"`
	Duration  float64  `json:"duration" yaml:"duration"`
	Position  Position `json:"position" yaml:"position"`
	Style     Style    `json:"style" yaml:"style"`
}

// EndTime is the first instant at which the overlay is no longer shown.
func (o TextOverlay) EndTime() float64 {
	return o.StartTime + o.Duration
}

// ActiveAt reports whether t falls inside the half-open interval [start, end).
func (o TextOverlay) ActiveAt(t float64) bool {
	return t >= o.StartTime && t < o.EndTime()
}

// Defaults configures newly added overlays.
type Defaults struct {
	Duration float64
	Text     string
	Position Position
	Style    Style
}

// DefaultDefaults returns the built-in defaults: three seconds, centred, white 24px text.
func DefaultDefaults() Defaults {
	return Defaults{
		Duration: 3,
		Text:     "New Text Overlay",
		Position: Position{X: 50, Y: 50},
		Style: Style{
			FontSize:   24,
			Color:      "#ffffff",
			FontFamily: "Inter, sans-serif",
			FontWeight: "600",
		},
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Text       *string
	StartTime  *float64
	Duration   *float64
	X          *float64
	Y          *float64
	FontSize   *float64
	Color      *string
	FontFamily *string
	FontWeight *string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether the patch touches no field.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func clampStart(v, prev float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return prev
	}
	return math.Max(0, v)
}

func clampDuration(v, prev float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return prev
	}
	return math.Max(MinDuration, v)
}

func clampPercent(v, prev float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	return math.Max(0, math.Min(100, v))
}

func clampFontSize(v, prev float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	return math.Max(MinFontSize, math.Min(MaxFontSize, v))
}
