package timefmt

import "math"

// Marker is a single ruler tick.
type Marker struct {
	Time  float64 `json:"time" yaml:"time"`
	Label string  `json:"label" yaml:"label"`
	Major bool    `json:"major" yaml:"major"`
}

// Density is the spacing of ruler ticks for a given zoom.
type Density struct {
	Interval float64 `json:"interval" yaml:"interval"`
	Major    float64 `json:"major" yaml:"major"`
}

// densityTable is ordered from the finest zoom to the coarsest; the first row
// whose threshold is exceeded wins.
var densityTable = []struct {
	above   float64
	density Density
}{
	{150, Density{Interval: 0.5, Major: 5}},
	{100, Density{Interval: 1, Major: 5}},
	{60, Density{Interval: 2, Major: 10}},
	{30, Density{Interval: 5, Major: 10}},
	{15, Density{Interval: 10, Major: 30}},
}

// DensityFor picks the tick spacing for a pixels-per-second scale.
func DensityFor(scale float64) Density {
	for _, row := range densityTable {
		if scale > row.above {
			return row.density
		}
	}
	return Density{Interval: 30, Major: 60}
}

// IsMajor reports whether a tick at t is a major tick for d.
func (d Density) IsMajor(t float64) bool {
	return t == 0 || math.Mod(t, d.Major) == 0
}

// Markers returns every tick from 0 to duration inclusive.
func Markers(duration, scale float64) []Marker {
	if math.IsNaN(duration) || duration < 0 {
		return nil
	}
	return MarkersInRange(0, duration, duration, scale)
}

// MarkersInRange returns the ticks within [start, end], never past duration.
// Tick times are computed as multiples of the interval so they do not drift.
func MarkersInRange(start, end, duration, scale float64) []Marker {
	if end > duration {
		end = duration
	}
	if start < 0 {
		start = 0
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(end, 0) || end < start {
		return nil
	}

	d := DensityFor(scale)
	first := int64(math.Ceil(start / d.Interval))
	last := int64(math.Floor(end / d.Interval))

	markers := make([]Marker, 0, last-first+1)
	for i := first; i <= last; i++ {
		t := float64(i) * d.Interval
		markers = append(markers, Marker{
			Time:  t,
			Label: FormatTime(t),
			Major: d.IsMajor(t),
		})
	}
	return markers
}
