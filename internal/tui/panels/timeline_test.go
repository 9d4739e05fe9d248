package panels

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/frametrack/internal/drag"
	"github.com/Dicklesworthstone/frametrack/internal/events"
	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/surface"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

type timelineFixture struct {
	panel    *TimelinePanel
	surf     *surface.Surface
	vp       *viewport.Model
	store    *overlay.Store
	seeks    []float64
	selected string
}

// newTimelineFixture lays out a 12s clip at 50px/s in a panel whose content
// starts at screen cell (2,1) and is 50 cells (400px) wide.
func newTimelineFixture(t *testing.T) *timelineFixture {
	t.Helper()
	f := &timelineFixture{selected: "unset"}
	f.vp = viewport.New(12)
	f.store = overlay.NewStore(nil)
	var current float64
	f.surf = surface.New(f.vp, f.store, surface.Handlers{
		OnSeek: func(v float64) {
			f.seeks = append(f.seeks, v)
			current = v
			f.surf.Sync(current, 12, false)
		},
		OnOverlayMove:   func(id string, start float64) { f.store.Move(id, start) },
		OnOverlayResize: func(id string, d float64) { f.store.Resize(id, d) },
		OnOverlaySelect: func(id string) { f.selected = id },
	}, nil)
	bus := events.NewEventBus()
	t.Cleanup(f.surf.Attach(bus))

	f.panel = NewTimelinePanel(f.surf, bus, 8)
	f.panel.SetSize(54, timelineRows+2)
	f.panel.SetOrigin(0, 0)
	f.surf.Sync(0, 12, false)
	return f
}

func mouse(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

// Screen rows of the fixture.
const (
	yRuler = 1 + rowRulerTicks
	yTrack = 1 + rowTrackBar
)

func TestTimelinePanel_LaysOutSurface(t *testing.T) {
	f := newTimelineFixture(t)
	if got := f.vp.ViewportWidth(); got != 400 {
		t.Errorf("expected viewport width 400, got %v", got)
	}
	f.panel.SetPixelsPerCell(4)
	if got := f.vp.ViewportWidth(); got != 200 {
		t.Errorf("expected viewport width 200 after ppc change, got %v", got)
	}
}

func TestTimelinePanel_RulerScrub(t *testing.T) {
	f := newTimelineFixture(t)

	if !f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+13, yRuler)) {
		t.Fatal("press on ruler should be taken")
	}
	if got := f.seeks[len(f.seeks)-1]; math.Abs(got-2.1) > 1e-9 {
		t.Errorf("press at 104px: expected snapped seek 2.1, got %v", got)
	}
	if f.surf.DragState() != drag.DraggingPlayhead {
		t.Errorf("expected playhead drag, got %s", f.surf.DragState())
	}

	f.panel.HandleMouse(mouse(tea.MouseActionMotion, tea.MouseButtonNone, 2+25, yRuler+3))
	if got := f.seeks[len(f.seeks)-1]; got != 4 {
		t.Errorf("motion to 200px: expected seek 4, got %v", got)
	}

	f.panel.HandleMouse(mouse(tea.MouseActionRelease, tea.MouseButtonNone, 2+25, yRuler))
	if f.surf.DragState() != drag.Idle {
		t.Errorf("release should end the gesture, got %s", f.surf.DragState())
	}
	if f.panel.HandleMouse(mouse(tea.MouseActionMotion, tea.MouseButtonNone, 2+30, yRuler)) {
		t.Error("motion without a press should be ignored")
	}
}

func TestTimelinePanel_IgnoresOutsideRows(t *testing.T) {
	f := newTimelineFixture(t)
	for _, msg := range []tea.MouseMsg{
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 10, 0),
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 10, 1+rowStatus),
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 0, yRuler),
		mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+50, yRuler),
	} {
		if f.panel.HandleMouse(msg) {
			t.Errorf("press at (%d,%d) should be ignored", msg.X, msg.Y)
		}
	}
	if len(f.seeks) != 0 {
		t.Errorf("expected no seeks, got %v", f.seeks)
	}
}

func TestTimelinePanel_OverlayDrag(t *testing.T) {
	f := newTimelineFixture(t)
	id := f.store.Add(2)

	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+15, yTrack))
	if f.selected != id {
		t.Fatalf("press on block should select it, got %q", f.selected)
	}
	f.panel.HandleMouse(mouse(tea.MouseActionMotion, tea.MouseButtonNone, 2+20, yTrack))
	f.panel.HandleMouse(mouse(tea.MouseActionRelease, tea.MouseButtonNone, 2+20, yTrack))

	o, _ := f.store.Get(id)
	if math.Abs(o.StartTime-2.8) > 1e-9 {
		t.Errorf("expected start 2.8 after a 40px drag, got %v", o.StartTime)
	}

	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+45, yTrack))
	if f.selected != "" {
		t.Errorf("press on empty track should clear selection, got %q", f.selected)
	}
}

func TestTimelinePanel_CancelGesture(t *testing.T) {
	f := newTimelineFixture(t)
	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+5, yRuler))
	f.panel.CancelGesture()
	if f.surf.DragState() != drag.Idle {
		t.Errorf("cancel should end the gesture, got %s", f.surf.DragState())
	}
}

func TestTimelinePanel_PressOutsideCancelsGesture(t *testing.T) {
	f := newTimelineFixture(t)
	id := f.store.Add(0)

	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+3, yTrack))
	if f.surf.DragState() != drag.DraggingOverlay {
		t.Fatalf("expected overlay drag, got %s", f.surf.DragState())
	}

	// The release never arrived; the next press lands on the panel border.
	if f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2+3, yTrack+2)) {
		t.Error("press outside the timeline rows should not be taken")
	}
	if f.surf.DragState() != drag.Idle {
		t.Errorf("outside press should cancel the gesture, got %s", f.surf.DragState())
	}
	if f.panel.HandleMouse(mouse(tea.MouseActionMotion, tea.MouseButtonNone, 2+20, yTrack)) {
		t.Error("motion after cancel should be ignored")
	}
	if o, _ := f.store.Get(id); o.StartTime != 0 {
		t.Errorf("cancelled gesture moved the overlay to %v", o.StartTime)
	}
}

func TestTimelinePanel_Wheel(t *testing.T) {
	f := newTimelineFixture(t)

	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 2+10, yTrack))
	if got := f.vp.ScrollPosition(); got != 32 {
		t.Errorf("wheel down: expected scroll 32, got %v", got)
	}
	f.panel.HandleMouse(mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 2+10, yTrack))
	if got := f.vp.ScrollPosition(); got != 0 {
		t.Errorf("wheel up: expected scroll 0, got %v", got)
	}

	msg := mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 2+10, yRuler)
	msg.Ctrl = true
	f.panel.HandleMouse(msg)
	if got := f.vp.Scale(); got != 60 {
		t.Errorf("ctrl+wheel up: expected scale 60, got %v", got)
	}
}

func TestTimelinePanel_View(t *testing.T) {
	f := newTimelineFixture(t)
	f.store.Add(2)

	view := f.panel.View()
	t.Logf("TIMELINE_TEST: view\n%s", view)

	for _, want := range []string{"Timeline", "50px/s", "New Text Overlay", "00:12:00", "snap", "▐"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != timelineRows+2 {
		t.Errorf("expected %d lines, got %d", timelineRows+2, lines)
	}
}

func TestTimelinePanel_LongOverlayRendersClipped(t *testing.T) {
	f := newTimelineFixture(t)
	long := f.store.Add(1)
	f.store.Update(long, overlay.Patch{Duration: overlay.Ptr(1e10)})
	far := f.store.Add(0)
	f.store.Update(far, overlay.Patch{StartTime: overlay.Ptr(1e300), Duration: overlay.Ptr(1e300)})

	done := make(chan string, 1)
	go func() { done <- f.panel.View() }()
	var view string
	select {
	case view = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("View did not return for a very long overlay")
	}
	t.Logf("TIMELINE_TEST: view\n%s", view)

	lines := strings.Split(view, "\n")
	bar := []rune(lines[1+rowTrackBar])
	// Content starts after the border and padding; the block starts at 1s (cell 6).
	if got := strings.Count(string(bar), "█"); got != 50-6 {
		t.Errorf("block should fill to the right edge, got %d cells: %q", got, string(bar))
	}
}

func TestCellGrid_WideRunes(t *testing.T) {
	g := newCellGrid(6, 1)
	g.write(0, 0, "日本", roleLabel)
	g.set(0, 1, "x", roleTick)

	var b strings.Builder
	for _, s := range g.text[0] {
		b.WriteString(s)
	}
	if got := b.String(); got != " x本  " {
		t.Errorf("overwriting a continuation cell should blank the wide rune, got %q", got)
	}
}

func TestKeyEventFromTea(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		key  string
		ctrl bool
		meta bool
	}{
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, events.KeySpace, false, false},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, events.KeyLeft, false, false},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, events.KeyHome, false, false},
		{"end", tea.KeyMsg{Type: tea.KeyEnd}, events.KeyEnd, false, false},
		{"ctrl+s", tea.KeyMsg{Type: tea.KeyCtrlS}, "s", true, false},
		{"ctrl+f", tea.KeyMsg{Type: tea.KeyCtrlF}, "f", true, false},
		{"alt+f", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f"), Alt: true}, "f", false, true},
		{"plus", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")}, "+", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := KeyEventFromTea(tt.msg, true)
			if ev.Key != tt.key || ev.Ctrl != tt.ctrl || ev.Meta != tt.meta {
				t.Errorf("got key=%q ctrl=%v meta=%v", ev.Key, ev.Ctrl, ev.Meta)
			}
			if !ev.InTextField {
				t.Error("InTextField should be carried through")
			}
		})
	}
}
