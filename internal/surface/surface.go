// Package surface is the interactive timeline: it turns keyboard, pointer and
// wheel input into viewport changes and upward intents, and produces a render
// snapshot for the terminal layer. It never owns playback or overlay state.
package surface

import (
	"log/slog"
	"math"

	"github.com/Dicklesworthstone/frametrack/internal/drag"
	"github.com/Dicklesworthstone/frametrack/internal/events"
	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

// Handlers receive the intents the surface emits. Nil handlers are skipped.
type Handlers struct {
	OnSeek          func(t float64)
	OnOverlayMove   func(id string, start float64)
	OnOverlayResize func(id string, duration float64)
	// OnOverlaySelect receives "" when the selection is cleared.
	OnOverlaySelect func(id string)
	OnPlayPause     func()
}

// Options tune the surface.
type Options struct {
	HandleWidth    float64
	MinBlockWidth  float64
	WheelZoomStep  float64
	ButtonZoomStep float64
	SnapEnabled    bool
	FrameMode      bool
	Follow         bool
}

// DefaultOptions returns the stock surface options.
func DefaultOptions() Options {
	return Options{
		HandleWidth:    8,
		MinBlockWidth:  20,
		WheelZoomStep:  10,
		ButtonZoomStep: 20,
		SnapEnabled:    true,
		Follow:         true,
	}
}

// OverlaySource is the read-only view of the overlay store the surface needs.
type OverlaySource interface {
	Get(id string) (overlay.TextOverlay, bool)
	List() []overlay.TextOverlay
}

// Surface composes the viewport, the drag controller and the shortcut map.
// Like the models it drives it is single-threaded.
type Surface struct {
	vp       *viewport.Model
	overlays OverlaySource
	handlers Handlers
	opts     Options

	snap *drag.Snapper
	drag *drag.Controller

	current  float64
	duration float64
	playing  bool

	releases map[int]func()
	nextRel  int
}

// New creates a surface over vp and overlays. A nil opts uses DefaultOptions.
func New(vp *viewport.Model, overlays OverlaySource, handlers Handlers, opts *Options) *Surface {
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}
	s := &Surface{
		vp:       vp,
		overlays: overlays,
		handlers: handlers,
		opts:     normalize(*opts),
		releases: make(map[int]func()),
	}
	s.snap = &drag.Snapper{Enabled: s.opts.SnapEnabled, FrameMode: s.opts.FrameMode}
	s.drag = drag.NewController(vp, overlays, intents{s}, s.snap)
	s.duration = vp.Duration()
	return s
}

func normalize(o Options) Options {
	d := DefaultOptions()
	if o.HandleWidth <= 0 {
		o.HandleWidth = d.HandleWidth
	}
	if o.MinBlockWidth <= 0 {
		o.MinBlockWidth = d.MinBlockWidth
	}
	if o.WheelZoomStep <= 0 {
		o.WheelZoomStep = d.WheelZoomStep
	}
	if o.ButtonZoomStep <= 0 {
		o.ButtonZoomStep = d.ButtonZoomStep
	}
	return o
}

// SetOptions applies new options, for example after a config reload. Snap
// and frame mode are reset to the new values.
func (s *Surface) SetOptions(o Options) {
	s.opts = normalize(o)
	s.snap.Enabled = s.opts.SnapEnabled
	s.snap.FrameMode = s.opts.FrameMode
}

// Options returns the current options with live snap and frame mode values.
func (s *Surface) Options() Options {
	o := s.opts
	o.SnapEnabled = s.snap.Enabled
	o.FrameMode = s.snap.FrameMode
	return o
}

// Viewport returns the viewport the surface drives.
func (s *Surface) Viewport() *viewport.Model { return s.vp }

// DragState returns the current gesture state.
func (s *Surface) DragState() drag.State { return s.drag.State() }

// SnapEnabled reports whether snapping is on.
func (s *Surface) SnapEnabled() bool { return s.snap.Enabled }

// FrameMode reports whether frame mode is on.
func (s *Surface) FrameMode() bool { return s.snap.FrameMode }

// ToggleSnap flips snapping.
func (s *Surface) ToggleSnap() {
	s.snap.Enabled = !s.snap.Enabled
	slog.Default().Debug("timeline snap toggled", "enabled", s.snap.Enabled)
}

// ToggleFrameMode flips frame mode.
func (s *Surface) ToggleFrameMode() {
	s.snap.FrameMode = !s.snap.FrameMode
	slog.Default().Debug("timeline frame mode toggled", "enabled", s.snap.FrameMode)
}

// SetWidth lays the surface out at w pixels.
func (s *Surface) SetWidth(w float64) {
	s.vp.SetViewportWidth(w)
	if s.opts.Follow && !s.drag.Active() {
		s.vp.Follow(s.current)
	}
}

// Sync receives the reported playback state. The viewport re-centres on the
// playhead when it leaves the view, unless a gesture is in progress.
func (s *Surface) Sync(currentTime, duration float64, playing bool) {
	s.current = currentTime
	s.duration = duration
	s.playing = playing
	s.vp.SetDuration(duration)
	if s.opts.Follow && !s.drag.Active() {
		s.vp.Follow(currentTime)
	}
}

// CurrentTime returns the last synced playback time.
func (s *Surface) CurrentTime() float64 { return s.current }

// Playing returns the last synced play state.
func (s *Surface) Playing() bool { return s.playing }

// ZoomIn zooms by the button step without an anchor.
func (s *Surface) ZoomIn() { s.vp.Zoom(s.opts.ButtonZoomStep) }

// ZoomOut zooms out by the button step without an anchor.
func (s *Surface) ZoomOut() { s.vp.Zoom(-s.opts.ButtonZoomStep) }

// StepBackward seeks one step back, clamped at 0.
func (s *Surface) StepBackward() {
	s.seek(math.Max(0, s.current-timefmt.Step(s.snap.FrameMode)))
}

// StepForward seeks one step forward, clamped at the duration.
func (s *Surface) StepForward() {
	s.seek(math.Min(s.duration, s.current+timefmt.Step(s.snap.FrameMode)))
}

// HandleKey applies a timeline shortcut and reports whether it was consumed.
// Keys typed into a text field are never consumed.
func (s *Surface) HandleKey(ev events.KeyEvent) bool {
	if ev.InTextField {
		return false
	}
	if ev.Modified() {
		switch ev.Key {
		case "s":
			s.ToggleSnap()
			return true
		case "f":
			s.ToggleFrameMode()
			return true
		}
		return false
	}
	switch ev.Key {
	case events.KeySpace:
		if s.handlers.OnPlayPause != nil {
			s.handlers.OnPlayPause()
		}
	case events.KeyLeft:
		s.StepBackward()
	case events.KeyRight:
		s.StepForward()
	case events.KeyHome:
		s.seek(0)
	case events.KeyEnd:
		s.seek(s.duration)
	case "+", "=":
		s.ZoomIn()
	case "-":
		s.ZoomOut()
	default:
		return false
	}
	return true
}

// HandlePointer routes a pointer event to the drag controller.
func (s *Surface) HandlePointer(ev events.PointerEvent) {
	switch ev.Action {
	case events.PointerDown:
		// A second press while a gesture is live is ignored outright.
		if s.drag.Active() {
			return
		}
		target := s.HitTest(ev.X, ev.Row)
		if target.Kind == drag.TargetNone {
			if ev.Row == events.RowTrack {
				s.selectOverlay("")
			}
			return
		}
		s.drag.PointerDown(target, ev.X)
	case events.PointerMove:
		s.drag.PointerMove(ev.X)
	case events.PointerUp:
		s.drag.PointerUp()
	case events.PointerCancel:
		s.drag.Cancel()
	}
}

// HandleWheel scrolls by DeltaX, or with Ctrl zooms around the time under
// the pointer. Positive DeltaY zooms out.
func (s *Surface) HandleWheel(ev events.WheelEvent) {
	if ev.Ctrl {
		anchor := s.vp.PixelsToTime(ev.X + s.vp.ScrollPosition())
		delta := s.opts.WheelZoomStep
		if ev.DeltaY > 0 {
			delta = -delta
		}
		s.vp.ZoomAt(delta, anchor)
		return
	}
	s.vp.ScrollBy(ev.DeltaX)
}

// HitTest resolves a viewport-local x on a row to a pointer target. Blocks
// drawn later sit on top, so they are tested first, and a block's resize
// handle wins over its body.
func (s *Surface) HitTest(x float64, row events.Row) drag.Target {
	switch row {
	case events.RowRuler:
		return drag.Ruler()
	case events.RowTrack:
	default:
		return drag.Target{}
	}

	p := x + s.vp.ScrollPosition()
	list := s.overlays.List()
	for i := len(list) - 1; i >= 0; i-- {
		left, width := s.blockExtent(list[i])
		if p < left || p >= left+width {
			continue
		}
		if p >= left+width-math.Min(s.opts.HandleWidth, width) {
			return drag.Handle(list[i].ID)
		}
		return drag.Body(list[i].ID)
	}
	return drag.Target{}
}

// blockExtent returns a block's absolute left pixel and drawn width.
func (s *Surface) blockExtent(o overlay.TextOverlay) (left, width float64) {
	left = s.vp.TimeToPixels(o.StartTime)
	width = math.Max(s.opts.MinBlockWidth, s.vp.TimeToPixels(o.Duration))
	return left, width
}

// Attach subscribes the surface to input events on bus and returns a func
// that removes those subscriptions.
func (s *Surface) Attach(bus *events.EventBus) (release func()) {
	unsubs := []events.UnsubscribeFunc{
		bus.Subscribe(events.TypeKey, func(e events.BusEvent) {
			if ev, ok := e.(events.KeyEvent); ok {
				s.HandleKey(ev)
			}
		}),
		bus.Subscribe(events.TypePointer, func(e events.BusEvent) {
			if ev, ok := e.(events.PointerEvent); ok {
				s.HandlePointer(ev)
			}
		}),
		bus.Subscribe(events.TypeWheel, func(e events.BusEvent) {
			if ev, ok := e.(events.WheelEvent); ok {
				s.HandleWheel(ev)
			}
		}),
	}

	s.nextRel++
	id := s.nextRel
	rel := func() {
		for _, u := range unsubs {
			u()
		}
		delete(s.releases, id)
	}
	s.releases[id] = rel
	return rel
}

// Close releases every bus subscription made through Attach and ends any
// gesture in progress.
func (s *Surface) Close() {
	for _, rel := range s.releases {
		rel()
	}
	s.drag.Cancel()
}

func (s *Surface) seek(t float64) {
	if s.handlers.OnSeek != nil {
		s.handlers.OnSeek(t)
	}
}

func (s *Surface) selectOverlay(id string) {
	if s.handlers.OnOverlaySelect != nil {
		s.handlers.OnOverlaySelect(id)
	}
}

// intents adapts Handlers to drag.Intents.
type intents struct{ s *Surface }

func (i intents) Seek(t float64) { i.s.seek(t) }

func (i intents) MoveOverlay(id string, start float64) {
	if i.s.handlers.OnOverlayMove != nil {
		i.s.handlers.OnOverlayMove(id, start)
	}
}

func (i intents) ResizeOverlay(id string, d float64) {
	if i.s.handlers.OnOverlayResize != nil {
		i.s.handlers.OnOverlayResize(id, d)
	}
}

func (i intents) SelectOverlay(id string) { i.s.selectOverlay(id) }
