package surface

import (
	"math"
	"testing"

	"github.com/Dicklesworthstone/frametrack/internal/drag"
	"github.com/Dicklesworthstone/frametrack/internal/events"
	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

// harness wires a surface to a store and a fake player the way the editor does.
type harness struct {
	t        *testing.T
	vp       *viewport.Model
	store    *overlay.Store
	surf     *Surface
	current  float64
	duration float64
	playing  bool
	selected string
	seeks    []float64
	moves    int
	resizes  int
}

func newHarness(t *testing.T, duration, width float64) *harness {
	t.Helper()
	h := &harness{t: t, duration: duration, selected: "unset"}
	h.vp = viewport.New(duration)
	h.store = overlay.NewStore(nil)
	h.surf = New(h.vp, h.store, Handlers{
		OnSeek: func(v float64) {
			h.seeks = append(h.seeks, v)
			h.current = v
			h.surf.Sync(h.current, h.duration, h.playing)
		},
		OnOverlayMove: func(id string, start float64) {
			h.moves++
			h.store.Move(id, start)
		},
		OnOverlayResize: func(id string, d float64) {
			h.resizes++
			h.store.Resize(id, d)
		},
		OnOverlaySelect: func(id string) { h.selected = id },
		OnPlayPause:     func() { h.playing = !h.playing },
	}, nil)
	h.surf.SetWidth(width)
	h.surf.Sync(0, duration, false)
	return h
}

func (h *harness) key(k string) bool {
	return h.surf.HandleKey(events.NewKeyEvent(k, false, false, false))
}

func (h *harness) lastSeek() float64 {
	h.t.Helper()
	if len(h.seeks) == 0 {
		h.t.Fatal("no seek emitted")
	}
	return h.seeks[len(h.seeks)-1]
}

func TestKeyboardShortcuts(t *testing.T) {
	h := newHarness(t, 12, 400)

	h.key(events.KeySpace)
	if !h.playing {
		t.Error("space should toggle play")
	}

	h.key(events.KeyRight)
	if got := h.lastSeek(); got != 1 {
		t.Errorf("right: expected 1, got %v", got)
	}
	h.key(events.KeyLeft)
	h.key(events.KeyLeft)
	if got := h.lastSeek(); got != 0 {
		t.Errorf("left past start: expected 0, got %v", got)
	}
	h.key(events.KeyEnd)
	if got := h.lastSeek(); got != 12 {
		t.Errorf("end: expected 12, got %v", got)
	}
	h.key(events.KeyRight)
	if got := h.lastSeek(); got != 12 {
		t.Errorf("right past end: expected 12, got %v", got)
	}
	h.key(events.KeyHome)
	if got := h.lastSeek(); got != 0 {
		t.Errorf("home: expected 0, got %v", got)
	}
}

func TestFrameModeStep(t *testing.T) {
	h := newHarness(t, 12, 400)
	if !h.surf.HandleKey(events.NewKeyEvent("f", true, false, false)) {
		t.Fatal("ctrl+f should be consumed")
	}
	if !h.surf.FrameMode() {
		t.Fatal("expected frame mode on")
	}
	h.key(events.KeyRight)
	if got := h.lastSeek(); math.Abs(got-1.0/30) > 1e-12 {
		t.Errorf("expected one frame step, got %v", got)
	}
}

func TestModifierTogglesSnap(t *testing.T) {
	h := newHarness(t, 12, 400)
	if !h.surf.SnapEnabled() {
		t.Fatal("snap should default on")
	}
	h.surf.HandleKey(events.NewKeyEvent("s", false, true, false))
	if h.surf.SnapEnabled() {
		t.Error("meta+s should toggle snap off")
	}
	h.surf.HandleKey(events.NewKeyEvent("s", true, false, false))
	if !h.surf.SnapEnabled() {
		t.Error("ctrl+s should toggle snap back on")
	}
}

func TestKeysIgnoredInTextField(t *testing.T) {
	h := newHarness(t, 12, 400)
	for _, k := range []string{events.KeySpace, events.KeyRight, "s"} {
		if h.surf.HandleKey(events.NewKeyEvent(k, k == "s", false, true)) {
			t.Errorf("key %q consumed while typing", k)
		}
	}
	if h.playing || len(h.seeks) != 0 || !h.surf.SnapEnabled() {
		t.Error("text field keys must not reach the timeline")
	}
}

func TestZoomButtons(t *testing.T) {
	h := newHarness(t, 12, 400)
	h.key("+")
	if h.vp.Scale() != 70 {
		t.Errorf("expected scale 70, got %v", h.vp.Scale())
	}
	h.key("-")
	h.key("-")
	if h.vp.Scale() != 30 {
		t.Errorf("expected scale 30, got %v", h.vp.Scale())
	}
}

func TestWheel(t *testing.T) {
	h := newHarness(t, 60, 400)

	h.surf.HandleWheel(events.NewWheelEvent(120, 0, 0, events.RowTrack, false))
	if h.vp.ScrollPosition() != 120 {
		t.Errorf("plain wheel should scroll by deltaX, got %v", h.vp.ScrollPosition())
	}

	// Pointer at local 80 + scroll 120 = 200px = 4s.
	before := h.vp.TimeToPixels(4) - h.vp.ScrollPosition()
	h.surf.HandleWheel(events.NewWheelEvent(0, -1, 80, events.RowTrack, true))
	if h.vp.Scale() != 60 {
		t.Errorf("ctrl wheel up should zoom in by 10, got %v", h.vp.Scale())
	}
	after := h.vp.TimeToPixels(4) - h.vp.ScrollPosition()
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("anchor moved on screen: %v -> %v", before, after)
	}

	h.surf.HandleWheel(events.NewWheelEvent(0, 3, 80, events.RowTrack, true))
	if h.vp.Scale() != 50 {
		t.Errorf("ctrl wheel down should zoom out by 10, got %v", h.vp.Scale())
	}
}

func TestHitTest(t *testing.T) {
	h := newHarness(t, 12, 400)
	a := h.store.Add(2)    // 100..250px
	b := h.store.Add(4)    // 200..350px, on top of a
	c := h.store.Add(8)    // 400..550px
	h.store.Resize(c, 0.1) // 5px drawn as 20px

	tests := []struct {
		name string
		x    float64
		row  events.Row
		want drag.Target
	}{
		{"ruler", 10, events.RowRuler, drag.Ruler()},
		{"no row", 10, events.RowNone, drag.Target{}},
		{"empty track", 50, events.RowTrack, drag.Target{}},
		{"body", 120, events.RowTrack, drag.Body(a)},
		{"b covers a's handle", 245, events.RowTrack, drag.Body(b)},
		{"top block wins overlap", 220, events.RowTrack, drag.Body(b)},
		{"handle edge", 342, events.RowTrack, drag.Handle(b)},
		{"past end", 350, events.RowTrack, drag.Target{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.surf.HitTest(tc.x, tc.row); got != tc.want {
				t.Errorf("HitTest(%v) = %+v, want %+v", tc.x, got, tc.want)
			}
		})
	}

	// Scroll right so c is in view.
	h.vp.SetScrollPosition(200)
	if got := h.surf.HitTest(205, events.RowTrack); got != drag.Body(c) {
		t.Errorf("min-width block body: got %+v", got)
	}
	if got := h.surf.HitTest(215, events.RowTrack); got != drag.Handle(c) {
		t.Errorf("min-width block handle: got %+v", got)
	}
}

func TestPointerGestures(t *testing.T) {
	h := newHarness(t, 12, 400)
	id := h.store.Add(2)

	h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, 120, events.RowTrack))
	if h.selected != id {
		t.Errorf("body press should select, got %q", h.selected)
	}
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerMove, 150, events.RowTrack))
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerUp, 150, events.RowTrack))
	if o, _ := h.store.Get(id); o.StartTime != 2.6 || o.Duration != 3 {
		t.Errorf("unexpected overlay after move: %+v", o)
	}
	if h.resizes != 0 {
		t.Error("move gesture emitted resize intents")
	}

	// Handle is the last 8px of [130, 280).
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, 276, events.RowTrack))
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerMove, 301, events.RowTrack))
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerCancel, 0, events.RowNone))
	if o, _ := h.store.Get(id); o.StartTime != 2.6 || math.Abs(o.Duration-3.5) > 1e-9 {
		t.Errorf("unexpected overlay after resize: %+v", o)
	}
	if h.moves != 1 {
		t.Errorf("resize gesture emitted move intents: %d", h.moves)
	}

	h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, 20, events.RowTrack))
	if h.selected != "" {
		t.Errorf("empty track press should clear selection, got %q", h.selected)
	}
}

func TestPressDuringGestureIgnored(t *testing.T) {
	h := newHarness(t, 12, 400)
	id := h.store.Add(0)

	h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, 10, events.RowTrack))
	if h.selected != id || h.surf.DragState() != drag.DraggingOverlay {
		t.Fatalf("body press should start a move, selected=%q state=%s", h.selected, h.surf.DragState())
	}

	tests := []struct {
		name string
		x    float64
		row  events.Row
	}{
		{"empty track", 350, events.RowTrack},
		{"ruler", 200, events.RowRuler},
		{"same block", 40, events.RowTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, tt.x, tt.row))
			if h.selected != id {
				t.Errorf("stray press changed selection to %q", h.selected)
			}
			if h.surf.DragState() != drag.DraggingOverlay {
				t.Errorf("stray press changed state to %s", h.surf.DragState())
			}
			if len(h.seeks) != 0 {
				t.Errorf("stray press emitted seeks %v", h.seeks)
			}
		})
	}

	// The original anchor still drives the move.
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerMove, 35, events.RowTrack))
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerUp, 35, events.RowTrack))
	if o, _ := h.store.Get(id); o.StartTime != 0.5 {
		t.Errorf("expected start 0.5 from the first anchor, got %v", o.StartTime)
	}
}

func TestRulerSeekAndFollowSuspendedWhileDragging(t *testing.T) {
	h := newHarness(t, 60, 400)

	h.surf.HandlePointer(events.NewPointerEvent(events.PointerDown, 52, events.RowRuler))
	if got := h.lastSeek(); got != 1 {
		t.Errorf("expected snapped seek 1.0, got %v", got)
	}

	// The player reports a time far outside the view mid-gesture.
	h.surf.Sync(40, 60, true)
	if h.vp.ScrollPosition() != 0 {
		t.Errorf("auto-follow must be suspended during a drag, scroll=%v", h.vp.ScrollPosition())
	}
	h.surf.HandlePointer(events.NewPointerEvent(events.PointerUp, 52, events.RowRuler))

	h.surf.Sync(40, 60, true)
	if !h.vp.Contains(40) {
		t.Errorf("expected viewport to follow playhead, scroll=%v", h.vp.ScrollPosition())
	}
}

func TestAttachAndClose(t *testing.T) {
	h := newHarness(t, 12, 400)
	bus := events.NewEventBus()

	release := h.surf.Attach(bus)
	bus.Publish(events.NewKeyEvent(events.KeySpace, false, false, false))
	if !h.playing {
		t.Fatal("attached surface should receive keys")
	}
	release()
	bus.Publish(events.NewKeyEvent(events.KeySpace, false, false, false))
	if !h.playing {
		t.Error("released surface still received keys")
	}

	h.surf.Attach(bus)
	h.surf.Attach(bus)
	if n := bus.SubscriberCount(events.TypePointer); n != 2 {
		t.Fatalf("expected 2 pointer subscribers, got %d", n)
	}
	h.surf.Close()
	for _, typ := range []string{events.TypeKey, events.TypePointer, events.TypeWheel} {
		if n := bus.SubscriberCount(typ); n != 0 {
			t.Errorf("%s: %d subscribers left after Close", typ, n)
		}
	}
}
