package surface

import (
	"math"

	"github.com/Dicklesworthstone/frametrack/internal/drag"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
)

// frameTickScale is the zoom above which frame mode draws per-frame ticks.
const frameTickScale = 80

// MarkerPos is a ruler marker at a viewport-local x.
type MarkerPos struct {
	timefmt.Marker
	X float64 `json:"x"`
}

// Block is an overlay's rectangle on the track row, in viewport-local pixels.
// X may be negative when the block starts left of the view.
type Block struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	X        float64 `json:"x"`
	Width    float64 `json:"width"`
	Handle   float64 `json:"handle"`
	Selected bool    `json:"selected,omitempty"`
	Active   bool    `json:"active,omitempty"`
}

// Frame is a render snapshot of the timeline.
type Frame struct {
	Width           float64     `json:"width"`
	Scale           float64     `json:"scale"`
	Scroll          float64     `json:"scroll"`
	VisibleStart    float64     `json:"visible_start"`
	VisibleEnd      float64     `json:"visible_end"`
	CurrentTime     float64     `json:"current_time"`
	Duration        float64     `json:"duration"`
	Playing         bool        `json:"playing"`
	Markers         []MarkerPos `json:"markers"`
	Blocks          []Block     `json:"blocks"`
	PlayheadX       float64     `json:"playhead_x"`
	PlayheadVisible bool        `json:"playhead_visible"`
	// Guides are overlay edge positions shown while dragging with snap on.
	Guides []float64 `json:"guides,omitempty"`
	// FrameTicks are per-frame positions shown in frame mode at high zoom.
	FrameTicks []float64  `json:"frame_ticks,omitempty"`
	DragState  drag.State `json:"drag_state"`
	Snap       bool       `json:"snap"`
	FrameMode  bool       `json:"frame_mode"`
}

// Frame builds a render snapshot. selectedID marks the selected block.
func (s *Surface) Frame(selectedID string) Frame {
	st := s.vp.State()
	start, end := s.vp.VisibleTimeRange()

	f := Frame{
		Width:        st.ViewportWidth,
		Scale:        st.Scale,
		Scroll:       st.ScrollPosition,
		VisibleStart: start,
		VisibleEnd:   end,
		CurrentTime:  s.current,
		Duration:     st.Duration,
		Playing:      s.playing,
		DragState:    s.drag.State(),
		Snap:         s.snap.Enabled,
		FrameMode:    s.snap.FrameMode,
	}

	if st.Duration > 0 {
		for _, m := range timefmt.MarkersInRange(start, end, st.Duration, st.Scale) {
			f.Markers = append(f.Markers, MarkerPos{Marker: m, X: s.local(m.Time)})
		}
	}

	for _, o := range s.overlays.List() {
		left, width := s.blockExtent(o)
		x := left - st.ScrollPosition
		if x+width < 0 || x > st.ViewportWidth {
			continue
		}
		f.Blocks = append(f.Blocks, Block{
			ID:       o.ID,
			Label:    o.Text,
			Start:    o.StartTime,
			End:      o.EndTime(),
			X:        x,
			Width:    width,
			Handle:   math.Min(s.opts.HandleWidth, width),
			Selected: o.ID == selectedID,
			Active:   o.ActiveAt(s.current),
		})
	}

	f.PlayheadX = s.local(s.current)
	f.PlayheadVisible = f.PlayheadX >= 0 && f.PlayheadX <= st.ViewportWidth

	if s.snap.Enabled && s.drag.Active() {
		for _, o := range s.overlays.List() {
			for _, t := range []float64{o.StartTime, o.EndTime()} {
				if x := s.local(t); x >= 0 && x <= st.ViewportWidth {
					f.Guides = append(f.Guides, x)
				}
			}
		}
	}

	if s.snap.FrameMode && st.Scale > frameTickScale {
		last := math.Floor(st.Duration*timefmt.FrameRate) - 1
		first := math.Max(0, math.Ceil(start*timefmt.FrameRate))
		stop := math.Min(last, math.Floor(end*timefmt.FrameRate))
		for i := first; i <= stop; i++ {
			f.FrameTicks = append(f.FrameTicks, s.local(i/timefmt.FrameRate))
		}
	}

	return f
}

func (s *Surface) local(t float64) float64 {
	return s.vp.TimeToPixels(t) - s.vp.ScrollPosition()
}
