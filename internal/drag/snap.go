package drag

import (
	"math"

	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
)

// snapStepsPerSecond is the grid density outside frame mode (0.1s).
const snapStepsPerSecond = 10

// Snapper quantizes times to a grid: one frame in frame mode, else 0.1s.
type Snapper struct {
	Enabled   bool
	FrameMode bool
}

// DefaultSnapper has snapping on and frame mode off.
func DefaultSnapper() Snapper {
	return Snapper{Enabled: true}
}

// Step returns the grid step in seconds.
func (s Snapper) Step() float64 {
	return 1 / s.perSecond()
}

// Snap rounds t to the nearest grid step when snapping is enabled.
// The division form keeps results such as 1.1 exact.
func (s Snapper) Snap(t float64) float64 {
	if !s.Enabled {
		return t
	}
	n := s.perSecond()
	return math.Round(t*n) / n
}

func (s Snapper) perSecond() float64 {
	if s.FrameMode {
		return timefmt.FrameRate
	}
	return snapStepsPerSecond
}
