// Package viewport maps timeline time to pixels and tracks the visible window
// into the timeline: zoom scale, scroll offset, width and content duration.
package viewport

import "math"

const (
	// MinScale and MaxScale bound the zoom in pixels per second.
	MinScale = 10
	MaxScale = 200
	// DefaultScale is the initial zoom.
	DefaultScale = 50
)

// State is a snapshot of the viewport.
type State struct {
	Scale          float64 `json:"scale"`
	ScrollPosition float64 `json:"scroll_position"`
	ViewportWidth  float64 `json:"viewport_width"`
	Duration       float64 `json:"duration"`
}

// MaxScroll is the largest legal scroll position for the state.
func (s State) MaxScroll() float64 {
	return math.Max(0, s.Duration*s.Scale-s.ViewportWidth)
}

type observer struct {
	id int
	fn func(State)
}

// Model owns the viewport state. Every setter re-establishes
// 0 <= ScrollPosition <= MaxScroll and MinScale <= Scale <= MaxScale.
type Model struct {
	state     State
	observers []observer
	nextID    int
}

// New creates a viewport at the default scale for content of the given duration.
func New(duration float64) *Model {
	m := &Model{state: State{Scale: DefaultScale}}
	m.state.Duration = nonNegative(duration, 0)
	return m
}

// ClampScale bounds s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// State returns the current state.
func (m *Model) State() State { return m.state }

// Scale returns pixels per second.
func (m *Model) Scale() float64 { return m.state.Scale }

// ScrollPosition returns the scroll offset in pixels.
func (m *Model) ScrollPosition() float64 { return m.state.ScrollPosition }

// ViewportWidth returns the visible width in pixels.
func (m *Model) ViewportWidth() float64 { return m.state.ViewportWidth }

// Duration returns the content duration in seconds.
func (m *Model) Duration() float64 { return m.state.Duration }

// MaxScroll returns the largest legal scroll position.
func (m *Model) MaxScroll() float64 { return m.state.MaxScroll() }

// ContentWidth returns the full timeline width in pixels.
func (m *Model) ContentWidth() float64 { return m.TimeToPixels(m.state.Duration) }

// TimeToPixels converts seconds to timeline pixels. No rounding is applied.
func (m *Model) TimeToPixels(t float64) float64 {
	return t * m.state.Scale
}

// PixelsToTime converts timeline pixels to seconds. No rounding is applied.
func (m *Model) PixelsToTime(p float64) float64 {
	return p / m.state.Scale
}

// SetScale clamps and applies a new scale. The scroll position is only
// touched when it would otherwise exceed the new limit; use ZoomAt to keep a
// point visually fixed.
func (m *Model) SetScale(s float64) {
	if math.IsNaN(s) {
		return
	}
	next := m.state
	next.Scale = ClampScale(s)
	next.ScrollPosition = clampScroll(next.ScrollPosition, next)
	m.commit(next)
}

// SetScrollPosition clamps p to [0, MaxScroll].
func (m *Model) SetScrollPosition(p float64) {
	if math.IsNaN(p) {
		return
	}
	next := m.state
	next.ScrollPosition = clampScroll(p, next)
	m.commit(next)
}

// ScrollBy shifts the scroll position by delta pixels.
func (m *Model) ScrollBy(delta float64) {
	m.SetScrollPosition(m.state.ScrollPosition + delta)
}

// SetViewportWidth updates the visible width.
func (m *Model) SetViewportWidth(w float64) {
	next := m.state
	next.ViewportWidth = nonNegative(w, next.ViewportWidth)
	next.ScrollPosition = clampScroll(next.ScrollPosition, next)
	m.commit(next)
}

// SetDuration updates the content duration.
func (m *Model) SetDuration(d float64) {
	next := m.state
	next.Duration = nonNegative(d, next.Duration)
	next.ScrollPosition = clampScroll(next.ScrollPosition, next)
	m.commit(next)
}

// Zoom changes the scale by delta without an anchor. The scroll position is
// left numerically unchanged unless the new limit forces it down.
func (m *Model) Zoom(delta float64) {
	m.SetScale(m.state.Scale + delta)
}

// ZoomAt changes the scale by delta keeping anchorTime at the same on-screen
// position. The scroll shift is computed against the scroll position at the
// old scale and only then is the new scale committed.
func (m *Model) ZoomAt(delta, anchorTime float64) {
	if math.IsNaN(delta) || math.IsNaN(anchorTime) {
		return
	}
	oldScale := m.state.Scale
	newScale := ClampScale(oldScale + delta)

	pixelDiff := anchorTime*newScale - anchorTime*oldScale
	target := m.state.ScrollPosition + pixelDiff

	next := m.state
	next.Scale = newScale
	next.ScrollPosition = clampScroll(target, next)
	m.commit(next)
}

// VisibleTimeRange returns the times at the left and right edges of the viewport.
func (m *Model) VisibleTimeRange() (start, end float64) {
	start = m.PixelsToTime(m.state.ScrollPosition)
	end = m.PixelsToTime(m.state.ScrollPosition + m.state.ViewportWidth)
	return start, end
}

// ScrollToTime centres the viewport on t.
func (m *Model) ScrollToTime(t float64) {
	m.SetScrollPosition(m.TimeToPixels(t) - m.state.ViewportWidth/2)
}

// Contains reports whether t lies within the visible pixel window.
func (m *Model) Contains(t float64) bool {
	p := m.TimeToPixels(t)
	return p >= m.state.ScrollPosition && p <= m.state.ScrollPosition+m.state.ViewportWidth
}

// Follow re-centres the viewport on t when t is outside it. It reports
// whether the viewport moved. A zero-width viewport has not been laid out
// yet and is left alone.
func (m *Model) Follow(t float64) bool {
	if m.state.ViewportWidth <= 0 || m.Contains(t) {
		return false
	}
	before := m.state.ScrollPosition
	m.ScrollToTime(t)
	return m.state.ScrollPosition != before
}

// OnChange registers fn to be called after each state change and returns a
// function that removes it.
func (m *Model) OnChange(fn func(State)) (unsubscribe func()) {
	m.nextID++
	id := m.nextID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

func (m *Model) commit(next State) {
	if next == m.state {
		return
	}
	m.state = next
	observers := make([]observer, len(m.observers))
	copy(observers, m.observers)
	for _, o := range observers {
		o.fn(next)
	}
}

func clampScroll(p float64, s State) float64 {
	return math.Max(0, math.Min(p, s.MaxScroll()))
}

func nonNegative(v, prev float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	if math.IsInf(v, 1) {
		return prev
	}
	return math.Max(0, v)
}
