// Package drag implements the timeline's single-gesture pointer state
// machine: scrubbing the playhead, moving an overlay, or resizing one.
package drag

import (
	"math"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
)

// State is the gesture currently in progress.
type State int

const (
	Idle State = iota
	DraggingPlayhead
	DraggingOverlay
	ResizingOverlay
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case DraggingPlayhead:
		return "dragging-playhead"
	case DraggingOverlay:
		return "dragging-overlay"
	case ResizingOverlay:
		return "resizing-overlay"
	default:
		return "idle"
	}
}

// TargetKind is what a pointer-down landed on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetRuler
	TargetOverlayBody
	TargetResizeHandle
)

// Target is the resolved hit-test result of a pointer-down.
type Target struct {
	Kind      TargetKind
	OverlayID string
}

// Ruler is the target for a pointer-down on the time ruler.
func Ruler() Target { return Target{Kind: TargetRuler} }

// Body is the target for a pointer-down on an overlay block.
func Body(id string) Target { return Target{Kind: TargetOverlayBody, OverlayID: id} }

// Handle is the target for a pointer-down on an overlay's resize handle.
func Handle(id string) Target { return Target{Kind: TargetResizeHandle, OverlayID: id} }

// Session is the record of the live gesture.
type Session struct {
	State           State
	OverlayID       string
	AnchorPixelX    float64
	AnchorStartTime float64
	AnchorDuration  float64
}

// Intents receives the results of a gesture. The controller never mutates
// playback or overlays itself.
type Intents interface {
	Seek(t float64)
	MoveOverlay(id string, start float64)
	ResizeOverlay(id string, duration float64)
	SelectOverlay(id string)
}

// Viewport is the part of the viewport model the controller reads. Values
// are read fresh at the start of every handler.
type Viewport interface {
	ScrollPosition() float64
	PixelsToTime(p float64) float64
	Duration() float64
}

// Overlays looks up the overlay a gesture targets.
type Overlays interface {
	Get(id string) (overlay.TextOverlay, bool)
}

// Controller is the drag state machine. At most one session is live; a
// pointer-down during a live session is ignored.
type Controller struct {
	vp       Viewport
	overlays Overlays
	intents  Intents
	snap     *Snapper

	session *Session
}

// NewController wires a controller. snap may be nil, in which case the
// default snapper is used.
func NewController(vp Viewport, overlays Overlays, intents Intents, snap *Snapper) *Controller {
	if snap == nil {
		s := DefaultSnapper()
		snap = &s
	}
	return &Controller{vp: vp, overlays: overlays, intents: intents, snap: snap}
}

// State returns the current state, Idle when no session is live.
func (c *Controller) State() State {
	if c.session == nil {
		return Idle
	}
	return c.session.State
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.session != nil
}

// Session returns a copy of the live session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Snapper returns the snapper shared with the controller.
func (c *Controller) Snapper() *Snapper {
	return c.snap
}

// timelinePixel converts a viewport-local x to an absolute timeline pixel.
func (c *Controller) timelinePixel(x float64) float64 {
	return x + c.vp.ScrollPosition()
}

func (c *Controller) clampTime(t float64) float64 {
	return math.Max(0, math.Min(t, c.vp.Duration()))
}

// PointerDown starts a gesture on target at viewport-local x. It reports
// whether a session was started.
func (c *Controller) PointerDown(target Target, x float64) bool {
	if c.session != nil || math.IsNaN(x) {
		return false
	}

	px := c.timelinePixel(x)

	switch target.Kind {
	case TargetRuler:
		c.session = &Session{State: DraggingPlayhead, AnchorPixelX: px}
		t := c.clampTime(c.snap.Snap(c.clampTime(c.vp.PixelsToTime(px))))
		c.intents.Seek(t)
		return true

	case TargetOverlayBody:
		o, ok := c.overlays.Get(target.OverlayID)
		if !ok {
			return false
		}
		c.session = &Session{
			State:           DraggingOverlay,
			OverlayID:       o.ID,
			AnchorPixelX:    px,
			AnchorStartTime: o.StartTime,
		}
		c.intents.SelectOverlay(o.ID)
		return true

	case TargetResizeHandle:
		o, ok := c.overlays.Get(target.OverlayID)
		if !ok {
			return false
		}
		c.session = &Session{
			State:          ResizingOverlay,
			OverlayID:      o.ID,
			AnchorPixelX:   px,
			AnchorDuration: o.Duration,
		}
		return true
	}
	return false
}

// PointerMove advances the live gesture to viewport-local x.
func (c *Controller) PointerMove(x float64) {
	if c.session == nil || math.IsNaN(x) {
		return
	}

	px := c.timelinePixel(x)
	s := c.session

	switch s.State {
	case DraggingPlayhead:
		// Continuous scrubbing is deliberately unsnapped.
		c.intents.Seek(c.clampTime(c.vp.PixelsToTime(px)))

	case DraggingOverlay:
		delta := c.vp.PixelsToTime(px - s.AnchorPixelX)
		start := math.Max(0, s.AnchorStartTime+delta)
		c.intents.MoveOverlay(s.OverlayID, c.snap.Snap(start))

	case ResizingOverlay:
		delta := c.vp.PixelsToTime(px - s.AnchorPixelX)
		c.intents.ResizeOverlay(s.OverlayID, math.Max(overlay.MinDuration, s.AnchorDuration+delta))
	}
}

// PointerUp ends the gesture. The last applied value stays in place.
func (c *Controller) PointerUp() {
	c.session = nil
}

// Cancel ends the gesture after loss of pointer capture. It behaves like
// PointerUp: nothing is rolled back.
func (c *Controller) Cancel() {
	c.session = nil
}
