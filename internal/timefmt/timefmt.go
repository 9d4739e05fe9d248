// Package timefmt converts between seconds and frame-accurate timecodes and
// derives the ruler markers drawn on the timeline.
package timefmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FrameRate is the fixed frame rate assumed for timecodes and frame snapping.
const FrameRate = 30

// FrameDuration is the length of one frame in seconds.
const FrameDuration = 1.0 / FrameRate

// FormatTime renders seconds as HH:MM:SS:FF, or MM:SS:FF when the hour field
// is zero. The value is first quantized to the nearest frame so that a
// timecode produced by ParseTime formats back to itself.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	total := int64(math.Round(seconds * FrameRate))
	frames := total % FrameRate
	whole := total / FrameRate
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
	}
	return fmt.Sprintf("%02d:%02d:%02d", minutes, secs, frames)
}

// ParseTime is the inverse of FormatTime. It accepts MM:SS:FF or HH:MM:SS:FF
// and returns 0 for anything else, including non-numeric fields.
func ParseTime(s string) float64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return 0
	}

	values := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		values[i] = v
	}

	if len(values) == 4 {
		return values[0]*3600 + values[1]*60 + values[2] + values[3]/FrameRate
	}
	return values[0]*60 + values[1] + values[2]/FrameRate
}

// FormatSeconds renders a short decimal form such as "3.0s" for form fields.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}

// Step returns the keyboard step size: one frame in frame mode, else one second.
func Step(frameMode bool) float64 {
	if frameMode {
		return FrameDuration
	}
	return 1
}
