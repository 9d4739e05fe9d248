package drag

import (
	"math"
	"testing"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

type call struct {
	kind  string
	id    string
	value float64
}

// recorder applies intents to the store and records them.
type recorder struct {
	store *overlay.Store
	calls []call
}

func (r *recorder) Seek(t float64) {
	r.calls = append(r.calls, call{kind: "seek", value: t})
}

func (r *recorder) MoveOverlay(id string, start float64) {
	r.calls = append(r.calls, call{kind: "move", id: id, value: start})
	r.store.Move(id, start)
}

func (r *recorder) ResizeOverlay(id string, d float64) {
	r.calls = append(r.calls, call{kind: "resize", id: id, value: d})
	r.store.Resize(id, d)
}

func (r *recorder) SelectOverlay(id string) {
	r.calls = append(r.calls, call{kind: "select", id: id})
}

func (r *recorder) last() call {
	if len(r.calls) == 0 {
		return call{}
	}
	return r.calls[len(r.calls)-1]
}

type fixture struct {
	vp    *viewport.Model
	store *overlay.Store
	rec   *recorder
	ctrl  *Controller
	id    string
}

// newFixture lays out a 12s timeline at 50px/s with one overlay at [2, 5).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	vp := viewport.New(12)
	vp.SetViewportWidth(400)
	store := overlay.NewStore(nil)
	id := store.Add(2)
	rec := &recorder{store: store}
	return &fixture{
		vp:    vp,
		store: store,
		rec:   rec,
		ctrl:  NewController(vp, store, rec, nil),
		id:    id,
	}
}

func TestSnapper(t *testing.T) {
	tests := []struct {
		name string
		s    Snapper
		in   float64
		want float64
	}{
		{"round down", Snapper{Enabled: true}, 1.04, 1.0},
		{"round up", Snapper{Enabled: true}, 1.06, 1.1},
		{"exact", Snapper{Enabled: true}, 2.5, 2.5},
		{"disabled", Snapper{}, 1.04, 1.04},
		{"frame mode", Snapper{Enabled: true, FrameMode: true}, 1.02, 31.0 / 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.s.Snap(tc.in)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Snap(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	if (Snapper{}).Step() != 0.1 {
		t.Errorf("expected 0.1 step, got %v", (Snapper{}).Step())
	}
	if (Snapper{FrameMode: true}).Step() != 1.0/30 {
		t.Errorf("expected frame step, got %v", (Snapper{FrameMode: true}).Step())
	}
}

func TestRulerSeekSnapsOnDownOnly(t *testing.T) {
	f := newFixture(t)

	if !f.ctrl.PointerDown(Ruler(), 52) {
		t.Fatal("ruler pointer-down should start a session")
	}
	if f.ctrl.State() != DraggingPlayhead {
		t.Fatalf("expected dragging-playhead, got %v", f.ctrl.State())
	}
	if got := f.rec.last(); got.kind != "seek" || got.value != 1.0 {
		t.Errorf("expected snapped seek to 1.0, got %+v", got)
	}

	f.ctrl.PointerMove(53)
	if got := f.rec.last(); got.kind != "seek" || math.Abs(got.value-1.06) > 1e-12 {
		t.Errorf("expected unsnapped seek to 1.06, got %+v", got)
	}

	f.ctrl.PointerUp()
	if f.ctrl.State() != Idle {
		t.Errorf("expected idle after up, got %v", f.ctrl.State())
	}
}

func TestRulerSeekClampsToDuration(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(Ruler(), 10000)
	if got := f.rec.last().value; got != 12 {
		t.Errorf("expected seek clamped to 12, got %v", got)
	}
	f.ctrl.PointerMove(-500)
	if got := f.rec.last().value; got != 0 {
		t.Errorf("expected seek clamped to 0, got %v", got)
	}
}

func TestPointerUsesScrollAtHandlerStart(t *testing.T) {
	vp := viewport.New(100)
	vp.SetViewportWidth(500)
	vp.SetScrollPosition(1000)
	store := overlay.NewStore(nil)
	rec := &recorder{store: store}
	ctrl := NewController(vp, store, rec, nil)

	ctrl.PointerDown(Ruler(), 0)
	if got := rec.last().value; got != 20 {
		t.Errorf("expected seek to 20s at scroll 1000, got %v", got)
	}

	vp.SetScrollPosition(1500)
	ctrl.PointerMove(0)
	if got := rec.last().value; got != 30 {
		t.Errorf("expected seek to re-read scroll, got %v", got)
	}
}

func TestOverlayDragMovesFromAnchor(t *testing.T) {
	f := newFixture(t)

	if !f.ctrl.PointerDown(Body(f.id), 100) {
		t.Fatal("body pointer-down should start a session")
	}
	if got := f.rec.last(); got.kind != "select" || got.id != f.id {
		t.Errorf("expected select intent, got %+v", got)
	}
	if s, _ := f.ctrl.Session(); s.AnchorPixelX != 100 || s.AnchorStartTime != 2 {
		t.Errorf("unexpected session anchor: %+v", s)
	}

	f.ctrl.PointerMove(130)
	if got := f.rec.last(); got.kind != "move" || got.value != 2.6 {
		t.Errorf("expected move to 2.6, got %+v", got)
	}

	// Deltas are measured from the anchor, not the previous move.
	f.ctrl.PointerMove(150)
	if got := f.rec.last().value; got != 3 {
		t.Errorf("expected move to 3, got %v", got)
	}

	f.ctrl.PointerMove(-400)
	if got := f.rec.last().value; got != 0 {
		t.Errorf("expected start clamped to 0, got %v", got)
	}

	f.ctrl.PointerUp()
	if o, _ := f.store.Get(f.id); o.StartTime != 0 {
		t.Errorf("last applied value should stick, got %v", o.StartTime)
	}
}

func TestResizeIsUnsnappedAndClamped(t *testing.T) {
	f := newFixture(t)

	if !f.ctrl.PointerDown(Handle(f.id), 250) {
		t.Fatal("handle pointer-down should start a session")
	}
	if f.ctrl.State() != ResizingOverlay {
		t.Fatalf("expected resizing, got %v", f.ctrl.State())
	}
	if len(f.rec.calls) != 0 {
		t.Errorf("handle pointer-down must not emit intents, got %+v", f.rec.calls)
	}

	f.ctrl.PointerMove(252)
	if got := f.rec.last(); got.kind != "resize" || math.Abs(got.value-3.04) > 1e-12 {
		t.Errorf("expected unsnapped resize to 3.04, got %+v", got)
	}

	f.ctrl.PointerMove(0)
	if got := f.rec.last().value; got != overlay.MinDuration {
		t.Errorf("expected duration clamped to %v, got %v", overlay.MinDuration, got)
	}

	if o, _ := f.store.Get(f.id); o.StartTime != 2 {
		t.Errorf("resize must not move the overlay, start=%v", o.StartTime)
	}
}

func TestMissingOverlayStaysIdle(t *testing.T) {
	f := newFixture(t)
	if f.ctrl.PointerDown(Body("overlay-missing"), 10) {
		t.Error("pointer-down on missing overlay should not start a session")
	}
	if f.ctrl.PointerDown(Handle("overlay-missing"), 10) {
		t.Error("pointer-down on missing handle should not start a session")
	}
	if f.ctrl.PointerDown(Target{}, 10) {
		t.Error("pointer-down on nothing should not start a session")
	}
	if f.ctrl.State() != Idle || len(f.rec.calls) != 0 {
		t.Errorf("expected idle with no intents, state=%v calls=%+v", f.ctrl.State(), f.rec.calls)
	}
}

func TestSingleSessionIsExclusive(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(Ruler(), 50)
	n := len(f.rec.calls)

	if f.ctrl.PointerDown(Body(f.id), 100) {
		t.Error("second pointer-down must be ignored")
	}
	if f.ctrl.State() != DraggingPlayhead {
		t.Errorf("state changed by ignored pointer-down: %v", f.ctrl.State())
	}
	if len(f.rec.calls) != n {
		t.Errorf("ignored pointer-down emitted intents: %+v", f.rec.calls[n:])
	}
}

func TestCancelBehavesLikeUp(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(Body(f.id), 100)
	f.ctrl.PointerMove(150)
	f.ctrl.Cancel()

	if f.ctrl.Active() {
		t.Error("expected no live session after cancel")
	}
	n := len(f.rec.calls)
	f.ctrl.PointerMove(300)
	f.ctrl.PointerUp()
	if len(f.rec.calls) != n {
		t.Errorf("moves after cancel emitted intents: %+v", f.rec.calls[n:])
	}
	if o, _ := f.store.Get(f.id); o.StartTime != 3 {
		t.Errorf("cancel must not roll back, start=%v", o.StartTime)
	}
}

func TestFrameModeSnapsOverlayToFrames(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Snapper().FrameMode = true

	f.ctrl.PointerDown(Body(f.id), 100)
	f.ctrl.PointerMove(101)
	got := f.rec.last().value
	t.Logf("DRAG_TEST: frame-snapped start %v", got)
	if frames := got * 30; math.Abs(frames-math.Round(frames)) > 1e-9 {
		t.Errorf("start %v is not on a frame boundary", got)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Idle:             "idle",
		DraggingPlayhead: "dragging-playhead",
		DraggingOverlay:  "dragging-overlay",
		ResizingOverlay:  "resizing-overlay",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
